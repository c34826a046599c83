package service

import (
	"context"
	"testing"
	"time"

	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordStampsAndOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fixed := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	recorded, err := env.journal.Record(ctx,
		models.Transaction{UserID: "u", Type: domain.TxTypeDeposit, Amount: dec("1.005"), Status: domain.TxStatusSuccessful},
		models.Transaction{ID: "given", UserID: "u", Type: domain.TxTypeWithdrawal, Amount: dec("2"), Timestamp: fixed},
	)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.NotEmpty(t, recorded[0].ID)
	assert.False(t, recorded[0].Timestamp.IsZero())
	requireDecimal(t, "1.01", recorded[0].Amount)
	assert.Equal(t, "given", recorded[1].ID)
	assert.Equal(t, fixed, recorded[1].Timestamp)

	own, err := env.journal.ListForUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, recorded[0].ID, own[0].ID, "newest first")

	all, err := env.journal.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReceiptEmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	txn := models.Transaction{
		ID:        "TXN1_OUT",
		UserID:    "u",
		Type:      domain.TxTypeTransferOut,
		Amount:    dec("3"),
		Status:    domain.TxStatusSuccessful,
		Timestamp: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	}

	receipt, err := env.receipts.Emit(ctx, txn, ReceiptExtra{Recipient: "Rita", RecipientAccountNumber: "1234567890"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiptTransfer, receipt.Type)
	assert.Equal(t, "TXN1_OUT", receipt.TransactionID)
	assert.Equal(t, txn.Timestamp, receipt.Timestamp)
	assert.Equal(t, "Rita", receipt.Recipient)
	assert.Regexp(t, `^REF\d{13}$`, receipt.ReferenceCode)

	listed, err := env.receipts.ListForUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, receipt.ID, listed[0].ID)
}
