package service

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/google/uuid"
)

// Journal is the append-only record of every attempted money movement.
type Journal struct {
	repo  *repository.Repository
	clock Clock
}

func NewJournal(repo *repository.Repository, clock Clock) *Journal {
	return &Journal{repo: repo, clock: clock}
}

// NewID returns TXN<unix millis><6 hex chars>.
func (j *Journal) NewID() string {
	u := uuid.New()
	return fmt.Sprintf("TXN%d%s", j.clock.now().UnixMilli(), hex.EncodeToString(u[:3]))
}

// Record stamps missing ids and timestamps and appends all entries in one write.
func (j *Journal) Record(ctx context.Context, entries ...models.Transaction) ([]models.Transaction, error) {
	recorded := make([]models.Transaction, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = j.NewID()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = j.clock.now()
		}
		e.Amount = domain.NormalizeAmount(e.Amount)
		recorded[i] = e
	}
	if err := j.repo.AppendTransactions(ctx, recorded...); err != nil {
		return nil, fmt.Errorf("record transactions: %w", err)
	}
	return recorded, nil
}

func (j *Journal) ListForUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return j.repo.ListTransactionsByUser(ctx, userID)
}

func (j *Journal) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return j.repo.ListTransactions(ctx)
}
