package service

import (
	"context"
	"testing"

	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRequiresRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "target")
	user := Actor{ID: u.ID, Email: u.Email, Role: domain.RoleUser}

	_, err := env.admin.FundUser(ctx, user, u.ID, dec("1"))
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.EditBalance(ctx, user, u.ID, dec("1"))
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.SetStatus(ctx, user, u.ID, domain.StatusFailed)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.Ban(ctx, user, u.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.Unban(ctx, user, u.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.DeleteUser(ctx, user, u.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.Stats(ctx, user)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.ListUsers(ctx, Actor{})
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.ListTransactions(ctx, Actor{})
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.admin.Reconcile(ctx, Actor{})
	assert.ErrorIs(t, err, models.ErrForbidden)

	stored := env.user(t, u.ID)
	requireDecimal(t, "0", stored.Balance)
	assert.Equal(t, domain.StatusActive, stored.Status)
}

func TestFundUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "funded")

	res, err := env.admin.FundUser(ctx, testAdmin, u.ID, dec("250"))
	require.NoError(t, err)
	requireDecimal(t, "250", res.NewBalance)
	assert.Equal(t, domain.TxTypeAdminDeposit, res.Transaction.Type)
	assert.Equal(t, "Admin deposit by ops@example.com", res.Transaction.Description)
	assert.Equal(t, testAdmin.ID, res.Transaction.AdminID)

	requireDecimal(t, "250", env.user(t, u.ID).TotalDeposits)
	txns, receipts := env.counts(t)
	assert.Equal(t, 1, txns)
	assert.Zero(t, receipts)

	_, err = env.admin.FundUser(ctx, testAdmin, u.ID, dec("0"))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = env.admin.FundUser(ctx, testAdmin, "", dec("5"))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = env.admin.FundUser(ctx, testAdmin, "missing", dec("5"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEditBalanceRecordsSignedDelta(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "edited")
	env.fund(t, u.ID, "720.25")

	res, err := env.admin.EditBalance(ctx, testAdmin, u.ID, dec("500"))
	require.NoError(t, err)
	requireDecimal(t, "500", env.user(t, u.ID).Balance)
	requireDecimal(t, "-220.25", res.Transaction.Amount)
	requireDecimal(t, "720.25", *res.Transaction.OldBalance)
	requireDecimal(t, "500", *res.Transaction.NewBalance)
	assert.Equal(t, domain.TxTypeAdminBalanceEdit, res.Transaction.Type)
	requireDecimal(t, "720.25", env.user(t, u.ID).TotalDeposits)

	res, err = env.admin.EditBalance(ctx, testAdmin, u.ID, dec("500"))
	require.NoError(t, err)
	requireDecimal(t, "0", res.Transaction.Amount)

	res, err = env.admin.EditBalance(ctx, testAdmin, u.ID, dec("800"))
	require.NoError(t, err)
	requireDecimal(t, "300", res.Transaction.Amount)

	_, err = env.admin.EditBalance(ctx, testAdmin, u.ID, dec("-1"))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = env.admin.EditBalance(ctx, testAdmin, u.ID, dec("1e200000000"))
	assert.ErrorIs(t, err, models.ErrValidation)
	requireDecimal(t, "800", env.user(t, u.ID).Balance)

	report, err := env.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
}

func TestSetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "stat")

	change, err := env.admin.SetStatus(ctx, testAdmin, u.ID, domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, change.OldStatus)
	assert.Equal(t, domain.StatusPending, change.NewStatus)

	stored := env.user(t, u.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	require.NotNil(t, stored.StatusUpdatedAt)
	assert.Equal(t, testAdmin.Email, stored.StatusUpdatedBy)

	_, err = env.admin.SetStatus(ctx, testAdmin, u.ID, domain.StatusBanned)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = env.admin.SetStatus(ctx, testAdmin, u.ID, "Frozen")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestBanAndUnban(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "villain")

	change, err := env.admin.Ban(ctx, testAdmin, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBanned, change.Status)

	stored := env.user(t, u.ID)
	assert.Equal(t, domain.StatusBanned, stored.Status)
	require.NotNil(t, stored.BannedAt)
	assert.Equal(t, testAdmin.Email, stored.BannedBy)

	_, err = env.identity.Login(ctx, "villain", "pw-villain")
	assert.ErrorIs(t, err, models.ErrForbidden)

	change, err = env.admin.Unban(ctx, testAdmin, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, change.Status)

	stored = env.user(t, u.ID)
	assert.Equal(t, domain.StatusActive, stored.Status)
	assert.Nil(t, stored.BannedAt)
	assert.Empty(t, stored.BannedBy)

	_, err = env.identity.Login(ctx, "villain", "pw-villain")
	assert.NoError(t, err)

	_, err = env.admin.Ban(ctx, testAdmin, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gone := env.register(t, "gone")
	kept := env.register(t, "kept")
	env.fund(t, gone.ID, "20")
	env.fund(t, kept.ID, "20")
	_, err := env.ledger.Transfer(ctx, gone.ID, kept.AccountNumber, dec("5"))
	require.NoError(t, err)

	deleted, err := env.admin.DeleteUser(ctx, testAdmin, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, &DeletedUser{ID: gone.ID, FullName: gone.FullName, Email: gone.Email}, deleted)

	_, err = env.repo.GetUser(ctx, gone.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	txns, err := env.journal.ListForUser(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
	rs, err := env.receipts.ListForUser(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, rs)

	keptTxns, err := env.journal.ListForUser(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, keptTxns, 2)

	_, err = env.admin.DeleteUser(ctx, testAdmin, gone.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "a")
	b := env.register(t, "b")
	c := env.register(t, "c")
	d := env.register(t, "d")

	env.fund(t, a.ID, "100")
	_, err := env.admin.FundUser(ctx, testAdmin, b.ID, dec("50"))
	require.NoError(t, err)
	_, err = env.ledger.Withdraw(ctx, a.ID, dec("10"), "ATM")
	require.NoError(t, err)
	_, err = env.ledger.Transfer(ctx, a.ID, b.AccountNumber, dec("20"))
	require.NoError(t, err)

	env.setStatus(t, c.ID, domain.StatusPending)
	_, err = env.ledger.Deposit(ctx, c.ID, dec("7"), "Bank Transfer")
	require.NoError(t, err)
	env.setStatus(t, d.ID, domain.StatusFailed)
	_, err = env.admin.Ban(ctx, testAdmin, b.ID)
	require.NoError(t, err)

	stats, err := env.admin.Stats(ctx, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveUsers)
	assert.Equal(t, 1, stats.PendingUsers)
	assert.Equal(t, 1, stats.FailedUsers)
	assert.Equal(t, 1, stats.BannedUsers)
	assert.Equal(t, 6, stats.TotalTransactions)
	// the blocked deposit still counts towards the deposit sum
	requireDecimal(t, "157", stats.TotalDeposits)
	requireDecimal(t, "10", stats.TotalWithdrawals)
	requireDecimal(t, "20", stats.TotalTransfers)
	requireDecimal(t, "140", stats.TotalBalance)
}

func TestAdminListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "listed")
	env.fund(t, u.ID, "3")
	_, err := env.admin.FundUser(ctx, testAdmin, u.ID, dec("4"))
	require.NoError(t, err)

	users, err := env.admin.ListUsers(ctx, testAdmin)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)

	txns, err := env.admin.ListTransactions(ctx, testAdmin)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, domain.TxTypeAdminDeposit, txns[0].Type)
	assert.Equal(t, domain.TxTypeDeposit, txns[1].Type)
}
