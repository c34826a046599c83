package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/ayo6706/banking-ledger/internal/observability"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	opFundUser    = "admin_fund"
	opEditBalance = "admin_edit_balance"
	opSetStatus   = "admin_set_status"
	opDeleteUser  = "admin_delete_user"
)

// Actor is the authenticated caller of a privileged operation.
type Actor struct {
	ID    string
	Email string
	Role  string
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

type FundResult struct {
	Transaction models.Transaction `json:"transaction"`
	NewBalance  decimal.Decimal    `json:"newBalance"`
}

type BalanceEditResult struct {
	Transaction models.Transaction `json:"transaction"`
	OldBalance  decimal.Decimal    `json:"oldBalance"`
	NewBalance  decimal.Decimal    `json:"newBalance"`
}

type StatusChange struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	OldStatus string `json:"oldStatus,omitempty"`
	NewStatus string `json:"newStatus,omitempty"`
	Status    string `json:"status"`
}

type DeletedUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type Stats struct {
	TotalUsers        int             `json:"totalUsers"`
	ActiveUsers       int             `json:"activeUsers"`
	PendingUsers      int             `json:"pendingUsers"`
	FailedUsers       int             `json:"failedUsers"`
	BannedUsers       int             `json:"bannedUsers"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalDeposits     decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals  decimal.Decimal `json:"totalWithdrawals"`
	TotalTransfers    decimal.Decimal `json:"totalTransfers"`
	TotalBalance      decimal.Decimal `json:"totalBalance"`
}

// AdminService performs operator mutations that bypass the ledger rules.
// Every method requires an admin Actor.
type AdminService struct {
	repo      *repository.Repository
	journal   *Journal
	locks     *UserLocks
	reconcile *ReconciliationService
	clock     Clock
}

func NewAdminService(repo *repository.Repository, journal *Journal, locks *UserLocks, reconcile *ReconciliationService, clock Clock) *AdminService {
	return &AdminService{
		repo:      repo,
		journal:   journal,
		locks:     locks,
		reconcile: reconcile,
		clock:     clock,
	}
}

func authorize(actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin access required", models.ErrForbidden)
	}
	return nil
}

func requireUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	return userID, nil
}

func (s *AdminService) FundUser(ctx context.Context, actor Actor, userID string, amount decimal.Decimal) (*FundResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	amount, err = domain.ValidateAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("fund user: %w: %v", models.ErrValidation, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fund user: %w", err)
	}
	user.Balance = user.Balance.Add(amount)
	user.TotalDeposits = user.TotalDeposits.Add(amount)

	txn := models.Transaction{
		UserID:      user.ID,
		Type:        domain.TxTypeAdminDeposit,
		Amount:      amount,
		Status:      domain.TxStatusSuccessful,
		Description: "Admin deposit by " + actor.Email,
		AdminID:     actor.ID,
		AdminEmail:  actor.Email,
	}
	recorded, err := s.persist(ctx, opFundUser, *user, txn)
	if err != nil {
		return nil, err
	}
	observability.IncrementLedgerOperation(opFundUser, "applied")
	zap.L().Info("admin funded user",
		zap.String("admin", actor.Email),
		zap.String("user_id", user.ID),
		zap.String("amount", domain.FormatUSD(amount)),
	)
	return &FundResult{Transaction: recorded, NewBalance: user.Balance}, nil
}

// EditBalance overwrites the balance and journals the signed difference.
func (s *AdminService) EditBalance(ctx context.Context, actor Actor, userID string, newBalance decimal.Decimal) (*BalanceEditResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	newBalance, err = domain.ValidateBalance(newBalance)
	if err != nil {
		return nil, fmt.Errorf("edit balance: %w: %v", models.ErrValidation, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("edit balance: %w", err)
	}
	oldBalance := user.Balance
	user.Balance = newBalance

	txn := models.Transaction{
		UserID:      user.ID,
		Type:        domain.TxTypeAdminBalanceEdit,
		Amount:      newBalance.Sub(oldBalance),
		Status:      domain.TxStatusSuccessful,
		Description: "Balance edited by admin " + actor.Email,
		AdminID:     actor.ID,
		AdminEmail:  actor.Email,
		OldBalance:  &oldBalance,
		NewBalance:  &newBalance,
	}
	recorded, err := s.persist(ctx, opEditBalance, *user, txn)
	if err != nil {
		return nil, err
	}
	observability.IncrementLedgerOperation(opEditBalance, "applied")
	zap.L().Info("admin edited balance",
		zap.String("admin", actor.Email),
		zap.String("user_id", user.ID),
		zap.String("old_balance", domain.FormatUSD(oldBalance)),
		zap.String("new_balance", domain.FormatUSD(newBalance)),
	)
	return &BalanceEditResult{Transaction: recorded, OldBalance: oldBalance, NewBalance: newBalance}, nil
}

// SetStatus assigns Active, Pending or Failed. Banned goes through Ban.
func (s *AdminService) SetStatus(ctx context.Context, actor Actor, userID, status string) (*StatusChange, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.AssignableStatuses[status]; !ok {
		return nil, fmt.Errorf("set status: %w: invalid status %q, must be Active, Pending, or Failed", models.ErrValidation, status)
	}

	var change *StatusChange
	err = s.updateUser(ctx, userID, func(u *models.User) {
		now := s.clock.now()
		change = &StatusChange{ID: u.ID, FullName: u.FullName, OldStatus: u.Status, NewStatus: status, Status: status}
		u.Status = status
		u.StatusUpdatedAt = &now
		u.StatusUpdatedBy = actor.Email
	})
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	observability.IncrementLedgerOperation(opSetStatus, "applied")
	zap.L().Info("admin set user status",
		zap.String("admin", actor.Email),
		zap.String("user_id", userID),
		zap.String("old_status", change.OldStatus),
		zap.String("new_status", status),
	)
	return change, nil
}

func (s *AdminService) Ban(ctx context.Context, actor Actor, userID string) (*StatusChange, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	var change *StatusChange
	err = s.updateUser(ctx, userID, func(u *models.User) {
		now := s.clock.now()
		u.Status = domain.StatusBanned
		u.BannedAt = &now
		u.BannedBy = actor.Email
		change = &StatusChange{ID: u.ID, FullName: u.FullName, Status: u.Status}
	})
	if err != nil {
		return nil, fmt.Errorf("ban user: %w", err)
	}
	zap.L().Info("admin banned user", zap.String("admin", actor.Email), zap.String("user_id", userID))
	return change, nil
}

func (s *AdminService) Unban(ctx context.Context, actor Actor, userID string) (*StatusChange, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	var change *StatusChange
	err = s.updateUser(ctx, userID, func(u *models.User) {
		u.Status = domain.StatusActive
		u.BannedAt = nil
		u.BannedBy = ""
		change = &StatusChange{ID: u.ID, FullName: u.FullName, Status: u.Status}
	})
	if err != nil {
		return nil, fmt.Errorf("unban user: %w", err)
	}
	zap.L().Info("admin unbanned user", zap.String("admin", actor.Email), zap.String("user_id", userID))
	return change, nil
}

// DeleteUser removes the user and cascades to their transactions and receipts.
func (s *AdminService) DeleteUser(ctx context.Context, actor Actor, userID string) (*DeletedUser, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	deleted, err := s.repo.DeleteUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	committed := []string{repository.CollectionUsers}
	txns, err := s.repo.DeleteTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, storageFailure(opDeleteUser, committed, err)
	}
	committed = append(committed, repository.CollectionTransactions)
	receipts, err := s.repo.DeleteReceiptsByUser(ctx, userID)
	if err != nil {
		return nil, storageFailure(opDeleteUser, committed, err)
	}

	zap.L().Info("admin deleted user",
		zap.String("admin", actor.Email),
		zap.String("user_id", userID),
		zap.Int("transactions_removed", txns),
		zap.Int("receipts_removed", receipts),
	)
	return &DeletedUser{ID: deleted.ID, FullName: deleted.FullName, Email: deleted.Email}, nil
}

// Stats aggregates over the current stores on every call. Deposit, withdrawal
// and transfer sums include every journal entry of the type regardless of status.
func (s *AdminService) Stats(ctx context.Context, actor Actor) (*Stats, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	txns, err := s.journal.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	stats := &Stats{
		TotalUsers:        len(users),
		TotalTransactions: len(txns),
		TotalDeposits:     decimal.Zero,
		TotalWithdrawals:  decimal.Zero,
		TotalTransfers:    decimal.Zero,
		TotalBalance:      decimal.Zero,
	}
	for _, u := range users {
		switch u.Status {
		case domain.StatusActive:
			stats.ActiveUsers++
		case domain.StatusPending:
			stats.PendingUsers++
		case domain.StatusFailed:
			stats.FailedUsers++
		case domain.StatusBanned:
			stats.BannedUsers++
		}
		stats.TotalBalance = stats.TotalBalance.Add(u.Balance)
	}
	for _, t := range txns {
		switch t.Type {
		case domain.TxTypeDeposit, domain.TxTypeAdminDeposit:
			stats.TotalDeposits = stats.TotalDeposits.Add(t.Amount)
		case domain.TxTypeWithdrawal:
			stats.TotalWithdrawals = stats.TotalWithdrawals.Add(t.Amount)
		case domain.TxTypeTransferOut:
			stats.TotalTransfers = stats.TotalTransfers.Add(t.Amount)
		}
	}
	return stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor Actor) ([]models.UserView, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

func (s *AdminService) ListTransactions(ctx context.Context, actor Actor) ([]models.Transaction, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	txns, err := s.journal.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

func (s *AdminService) Reconcile(ctx context.Context, actor Actor) (*ReconciliationReport, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.reconcile.Reconcile(ctx)
}

func (s *AdminService) updateUser(ctx context.Context, userID string, fn func(u *models.User)) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	fn(user)
	return s.repo.PutUsers(ctx, *user)
}

func (s *AdminService) persist(ctx context.Context, op string, user models.User, txn models.Transaction) (models.Transaction, error) {
	if err := s.repo.PutUsers(ctx, user); err != nil {
		return models.Transaction{}, storageFailure(op, nil, err)
	}
	recorded, err := s.journal.Record(ctx, txn)
	if err != nil {
		return models.Transaction{}, storageFailure(op, []string{repository.CollectionUsers}, err)
	}
	return recorded[0], nil
}
