package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/observability"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

type BalanceMismatch struct {
	UserID        string          `json:"userId"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	Expected      decimal.Decimal `json:"expected"`
	Difference    decimal.Decimal `json:"difference"`
}

type ReconciliationReport struct {
	CheckedAt    time.Time         `json:"checkedAt"`
	UsersChecked int               `json:"usersChecked"`
	Balanced     bool              `json:"balanced"`
	Mismatches   []BalanceMismatch `json:"mismatches"`
}

// ReconciliationService verifies that every balance equals the signed sum of
// that user's successful journal entries.
type ReconciliationService struct {
	repo  *repository.Repository
	clock Clock
}

func NewReconciliationService(repo *repository.Repository, clock Clock) *ReconciliationService {
	return &ReconciliationService{repo: repo, clock: clock}
}

// Reconcile reports balances that disagree with the journal. Users and the
// journal are read as separate snapshots, so a write landing between the two
// reads can look like drift; a mismatch is reported only when a second read
// shows the same difference.
func (s *ReconciliationService) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	checked, mismatches, err := s.compare(ctx)
	if err != nil {
		return nil, err
	}
	if len(mismatches) > 0 {
		first := make(map[string]decimal.Decimal, len(mismatches))
		for _, m := range mismatches {
			first[m.UserID] = m.Difference
		}
		var again []BalanceMismatch
		checked, again, err = s.compare(ctx)
		if err != nil {
			return nil, err
		}
		mismatches = []BalanceMismatch{}
		for _, m := range again {
			if d, ok := first[m.UserID]; ok && d.Equal(m.Difference) {
				mismatches = append(mismatches, m)
			}
		}
	}

	report := &ReconciliationReport{
		CheckedAt:    s.clock.now(),
		UsersChecked: checked,
		Balanced:     len(mismatches) == 0,
		Mismatches:   mismatches,
	}
	observability.SetReconciliationMismatches(len(mismatches))
	return report, nil
}

func (s *ReconciliationService) compare(ctx context.Context) (int, []BalanceMismatch, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("reconcile users: %w", err)
	}
	txns, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("reconcile transactions: %w", err)
	}

	expected := make(map[string]decimal.Decimal, len(users))
	for _, t := range txns {
		if t.Status != domain.TxStatusSuccessful {
			continue
		}
		expected[t.UserID] = expected[t.UserID].Add(domain.SignedEffect(t.Type, t.Amount))
	}

	mismatches := []BalanceMismatch{}
	for _, u := range users {
		want := expected[u.ID]
		if u.Balance.Equal(want) {
			continue
		}
		mismatches = append(mismatches, BalanceMismatch{
			UserID:        u.ID,
			AccountNumber: u.AccountNumber,
			Balance:       u.Balance,
			Expected:      want,
			Difference:    u.Balance.Sub(want),
		})
	}
	return len(users), mismatches, nil
}
