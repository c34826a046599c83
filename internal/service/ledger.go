package service

import (
	"context"
	"errors"
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
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
)

// LedgerOptions tunes the money movement rules.
type LedgerOptions struct {
	// BlockBanned makes Banned accounts hit the status gate like Pending and Failed.
	BlockBanned bool
}

// Counterparty identifies the recipient of a transfer in a ledger result.
type Counterparty struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber"`
}

// LedgerResult is the outcome of a deposit, withdrawal or transfer.
type LedgerResult struct {
	Message         string              `json:"message"`
	Transaction     *models.Transaction `json:"transaction,omitempty"`
	Receipt         *models.Receipt     `json:"receipt,omitempty"`
	NewBalance      *decimal.Decimal    `json:"newBalance,omitempty"`
	StatusBlocked   bool                `json:"statusBlocked,omitempty"`
	RequiresSupport bool                `json:"requiresSupport,omitempty"`
	Recipient       *Counterparty       `json:"recipient,omitempty"`
}

// LedgerService applies deposits, withdrawals and transfers.
type LedgerService struct {
	repo     *repository.Repository
	journal  *Journal
	receipts *ReceiptService
	locks    *UserLocks
	opts     LedgerOptions
}

func NewLedgerService(repo *repository.Repository, journal *Journal, receipts *ReceiptService, locks *UserLocks, opts LedgerOptions) *LedgerService {
	return &LedgerService{
		repo:     repo,
		journal:  journal,
		receipts: receipts,
		locks:    locks,
		opts:     opts,
	}
}

func (s *LedgerService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, method string) (*LedgerResult, error) {
	amount, err := domain.ValidateAmount(amount)
	if err != nil {
		return nil, s.reject(opDeposit, fmt.Errorf("deposit: %w: %v", models.ErrValidation, err))
	}
	method = strings.TrimSpace(method)

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, s.reject(opDeposit, fmt.Errorf("deposit: %w", err))
	}

	txn := models.Transaction{
		UserID: user.ID,
		Type:   domain.TxTypeDeposit,
		Amount: amount,
		Method: method,
	}

	if domain.IsStatusBlocked(user.Status, s.opts.BlockBanned) {
		txn.Status = domain.BlockedTxStatus(user.Status)
		txn.Description = fmt.Sprintf("%s - Account %s", via("Deposit", method), user.Status)
		return s.recordBlocked(ctx, opDeposit, "Transaction", user, txn, ReceiptExtra{})
	}

	if method == domain.MethodCard {
		observability.IncrementLedgerOperation(opDeposit, "requires_support")
		zap.L().Info("card deposit deferred to support", zap.String("user_id", user.ID), zap.String("amount", domain.FormatUSD(amount)))
		return &LedgerResult{Message: domain.SupportMessage, RequiresSupport: true}, nil
	}

	user.Balance = user.Balance.Add(amount)
	user.TotalDeposits = user.TotalDeposits.Add(amount)
	txn.Status = domain.TxStatusSuccessful
	txn.Description = via("Deposit", method)

	recorded, receipt, err := s.persist(ctx, opDeposit, []models.User{*user}, []models.Transaction{txn}, ReceiptExtra{})
	if err != nil {
		return nil, err
	}
	s.applied(opDeposit, user, amount)
	return &LedgerResult{
		Message:     "Deposit successful",
		Transaction: &recorded[0],
		Receipt:     receipt,
		NewBalance:  &user.Balance,
	}, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, method string) (*LedgerResult, error) {
	amount, err := domain.ValidateAmount(amount)
	if err != nil {
		return nil, s.reject(opWithdraw, fmt.Errorf("withdraw: %w: %v", models.ErrValidation, err))
	}
	method = strings.TrimSpace(method)

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, s.reject(opWithdraw, fmt.Errorf("withdraw: %w", err))
	}

	txn := models.Transaction{
		UserID: user.ID,
		Type:   domain.TxTypeWithdrawal,
		Amount: amount,
		Method: method,
	}

	if domain.IsStatusBlocked(user.Status, s.opts.BlockBanned) {
		txn.Status = domain.BlockedTxStatus(user.Status)
		txn.Description = fmt.Sprintf("%s - Account %s", via("Withdrawal", method), user.Status)
		return s.recordBlocked(ctx, opWithdraw, "Withdrawal", user, txn, ReceiptExtra{})
	}

	if user.Balance.LessThan(amount) {
		return nil, s.reject(opWithdraw, fmt.Errorf("withdraw %s: %w", amount.StringFixed(2), models.ErrInsufficientFunds))
	}

	user.Balance = user.Balance.Sub(amount)
	user.TotalWithdrawals = user.TotalWithdrawals.Add(amount)
	txn.Status = domain.TxStatusSuccessful
	txn.Description = via("Withdrawal", method)

	recorded, receipt, err := s.persist(ctx, opWithdraw, []models.User{*user}, []models.Transaction{txn}, ReceiptExtra{})
	if err != nil {
		return nil, err
	}
	s.applied(opWithdraw, user, amount)
	return &LedgerResult{
		Message:     "Withdrawal successful",
		Transaction: &recorded[0],
		Receipt:     receipt,
		NewBalance:  &user.Balance,
	}, nil
}

// Transfer moves amount from the sender to the account with recipientAccountNumber.
func (s *LedgerService) Transfer(ctx context.Context, senderID, recipientAccountNumber string, amount decimal.Decimal) (*LedgerResult, error) {
	amount, err := domain.ValidateAmount(amount)
	if err != nil {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer: %w: %v", models.ErrValidation, err))
	}
	recipientAccountNumber = strings.TrimSpace(recipientAccountNumber)
	if recipientAccountNumber == "" {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer: %w: recipient account number is required", models.ErrValidation))
	}

	// Resolve both parties once to learn the lock keys, then re-read under the lock.
	if _, err := s.repo.GetUser(ctx, senderID); err != nil {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer sender: %w", err))
	}
	found, err := s.repo.FindUserByAccountNumber(ctx, recipientAccountNumber)
	if err != nil {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer recipient: %w", err))
	}
	if found.ID == senderID {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer: %w: cannot transfer to your own account", models.ErrValidation))
	}

	unlock := s.locks.Lock(senderID, found.ID)
	defer unlock()

	sender, err := s.repo.GetUser(ctx, senderID)
	if err != nil {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer sender: %w", err))
	}
	recipient, err := s.repo.GetUser(ctx, found.ID)
	if err != nil {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer recipient: %w", err))
	}

	party := &Counterparty{Name: recipient.FullName, AccountNumber: recipient.AccountNumber}
	extra := ReceiptExtra{Recipient: recipient.FullName, RecipientAccountNumber: recipient.AccountNumber}
	base := s.journal.NewID()
	now := s.journal.clock.now()
	out := models.Transaction{
		ID:                     base + domain.TransferOutSuffix,
		UserID:                 sender.ID,
		Type:                   domain.TxTypeTransferOut,
		Amount:                 amount,
		Timestamp:              now,
		RecipientName:          recipient.FullName,
		RecipientAccountNumber: recipient.AccountNumber,
	}

	if domain.IsStatusBlocked(sender.Status, s.opts.BlockBanned) {
		out.Status = domain.BlockedTxStatus(sender.Status)
		out.Description = fmt.Sprintf("Transfer to %s - Account %s", recipient.FullName, sender.Status)
		res, err := s.recordBlocked(ctx, opTransfer, "Transfer", sender, out, extra)
		if err != nil {
			return nil, err
		}
		res.Recipient = party
		return res, nil
	}

	if sender.Balance.LessThan(amount) {
		return nil, s.reject(opTransfer, fmt.Errorf("transfer %s: %w", amount.StringFixed(2), models.ErrInsufficientFunds))
	}

	sender.Balance = sender.Balance.Sub(amount)
	sender.TotalWithdrawals = sender.TotalWithdrawals.Add(amount)
	recipient.Balance = recipient.Balance.Add(amount)
	recipient.TotalDeposits = recipient.TotalDeposits.Add(amount)

	out.Status = domain.TxStatusSuccessful
	out.Description = "Transfer to " + recipient.FullName
	in := models.Transaction{
		ID:                  base + domain.TransferInSuffix,
		UserID:              recipient.ID,
		Type:                domain.TxTypeTransferIn,
		Amount:              amount,
		Status:              domain.TxStatusSuccessful,
		Timestamp:           now,
		Description:         "Transfer from " + sender.FullName,
		SenderName:          sender.FullName,
		SenderAccountNumber: sender.AccountNumber,
	}

	recorded, receipt, err := s.persist(ctx, opTransfer, []models.User{*sender, *recipient}, []models.Transaction{out, in}, extra)
	if err != nil {
		return nil, err
	}
	s.applied(opTransfer, sender, amount, zap.String("recipient_id", recipient.ID))
	return &LedgerResult{
		Message:     "Transfer successful",
		Transaction: &recorded[0],
		Receipt:     receipt,
		NewBalance:  &sender.Balance,
		Recipient:   party,
	}, nil
}

// recordBlocked journals a status-blocked attempt without touching the balance.
func (s *LedgerService) recordBlocked(ctx context.Context, op, noun string, user *models.User, txn models.Transaction, extra ReceiptExtra) (*LedgerResult, error) {
	recorded, receipt, err := s.persist(ctx, op, nil, []models.Transaction{txn}, extra)
	if err != nil {
		return nil, err
	}
	observability.IncrementLedgerOperation(op, "blocked")
	zap.L().Info("ledger operation blocked by account status",
		zap.String("operation", op),
		zap.String("user_id", user.ID),
		zap.String("status", user.Status),
		zap.String("transaction_id", recorded[0].ID),
	)
	balance := user.Balance
	return &LedgerResult{
		Message:       fmt.Sprintf("%s %s - Account status: %s", noun, strings.ToLower(user.Status), user.Status),
		Transaction:   &recorded[0],
		Receipt:       receipt,
		NewBalance:    &balance,
		StatusBlocked: true,
	}, nil
}

// persist writes users, then the journal, then the initiator's receipt. A
// failure part way leaves earlier writes in place.
func (s *LedgerService) persist(ctx context.Context, op string, users []models.User, txns []models.Transaction, extra ReceiptExtra) ([]models.Transaction, *models.Receipt, error) {
	var committed []string
	if len(users) > 0 {
		if err := s.repo.PutUsers(ctx, users...); err != nil {
			return nil, nil, storageFailure(op, committed, err)
		}
		committed = append(committed, repository.CollectionUsers)
	}

	recorded, err := s.journal.Record(ctx, txns...)
	if err != nil {
		return nil, nil, storageFailure(op, committed, err)
	}
	committed = append(committed, repository.CollectionTransactions)

	receipt, err := s.receipts.Emit(ctx, recorded[0], extra)
	if err != nil {
		return nil, nil, storageFailure(op, committed, err)
	}
	return recorded, receipt, nil
}

func (s *LedgerService) reject(op string, err error) error {
	outcome := "rejected"
	if errors.Is(err, models.ErrStorage) {
		outcome = "failed"
	}
	observability.IncrementLedgerOperation(op, outcome)
	return err
}

func (s *LedgerService) applied(op string, user *models.User, amount decimal.Decimal, fields ...zap.Field) {
	observability.IncrementLedgerOperation(op, "applied")
	zap.L().Info("ledger operation applied", append([]zap.Field{
		zap.String("operation", op),
		zap.String("user_id", user.ID),
		zap.String("amount", domain.FormatUSD(amount)),
		zap.String("balance", domain.FormatUSD(user.Balance)),
	}, fields...)...)
}

// storageFailure records a failed write, naming the collections that were
// already committed when the failure left the stores inconsistent.
func storageFailure(op string, committed []string, err error) error {
	observability.IncrementStorageError(op)
	observability.IncrementLedgerOperation(op, "failed")
	if len(committed) > 0 {
		zap.L().Error("partial ledger write",
			zap.String("operation", op),
			zap.Strings("committed", committed),
			zap.Error(err),
		)
	} else {
		zap.L().Error("ledger write failed", zap.String("operation", op), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func via(kind, method string) string {
	if method == "" {
		return kind
	}
	return kind + " via " + method
}
