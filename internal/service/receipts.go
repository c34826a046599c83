package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/google/uuid"
)

// ReceiptExtra carries transfer counterparty details onto a receipt.
type ReceiptExtra struct {
	Recipient              string
	RecipientAccountNumber string
}

type ReceiptService struct {
	repo  *repository.Repository
	clock Clock
}

func NewReceiptService(repo *repository.Repository, clock Clock) *ReceiptService {
	return &ReceiptService{repo: repo, clock: clock}
}

// Emit derives and persists the receipt for a journal entry.
func (s *ReceiptService) Emit(ctx context.Context, txn models.Transaction, extra ReceiptExtra) (*models.Receipt, error) {
	receipt := models.Receipt{
		ID:                     uuid.NewString(),
		TransactionID:          txn.ID,
		UserID:                 txn.UserID,
		Type:                   domain.ReceiptLabel(txn.Type),
		Amount:                 txn.Amount,
		Timestamp:              txn.Timestamp,
		Status:                 txn.Status,
		ReferenceCode:          fmt.Sprintf("REF%d", s.clock.now().UnixMilli()),
		Recipient:              extra.Recipient,
		RecipientAccountNumber: extra.RecipientAccountNumber,
	}
	if err := s.repo.AppendReceipts(ctx, receipt); err != nil {
		return nil, fmt.Errorf("emit receipt for %s: %w", txn.ID, err)
	}
	return &receipt, nil
}

func (s *ReceiptService) ListForUser(ctx context.Context, userID string) ([]models.Receipt, error) {
	return s.repo.ListReceiptsByUser(ctx, userID)
}
