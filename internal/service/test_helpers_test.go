package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayo6706/banking-ledger/internal/auth"
	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "service-test-secret-0123456789abcdef"

var testAdmin = Actor{ID: domain.AdminSubject, Email: "ops@example.com", Role: domain.RoleAdmin}

// stepClock advances by one millisecond on every read so ordering is stable.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type testEnv struct {
	repo      *repository.Repository
	backend   repository.Backend
	identity  *IdentityService
	ledger    *LedgerService
	admin     *AdminService
	journal   *Journal
	receipts  *ReceiptService
	reconcile *ReconciliationService
	tokens    *auth.Tokens
}

type envOption func(*envConfig)

type envConfig struct {
	ledger    LedgerOptions
	serialize bool
	backend   repository.Backend
}

func withBlockBanned() envOption {
	return func(c *envConfig) { c.ledger.BlockBanned = true }
}

func withBackend(b repository.Backend) envOption {
	return func(c *envConfig) { c.backend = b }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{serialize: true, backend: repository.NewMemoryBackend()}
	for _, opt := range opts {
		opt(&cfg)
	}

	sc := &stepClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	clock := Clock(sc.Now)

	tokens, err := auth.NewTokens(testSecret, "banking-ledger", "banking-api", time.Hour)
	require.NoError(t, err)

	repo := repository.NewRepository(cfg.backend)
	locks := NewUserLocks(cfg.serialize)
	journal := NewJournal(repo, clock)
	receipts := NewReceiptService(repo, clock)
	reconcile := NewReconciliationService(repo, clock)

	return &testEnv{
		repo:      repo,
		backend:   cfg.backend,
		identity:  NewIdentityService(repo, auth.NewBcryptHasher(bcrypt.MinCost), tokens, AdminCredentials{Key: "k3y", Email: testAdmin.Email, Password: "s3cret"}, clock),
		ledger:    NewLedgerService(repo, journal, receipts, locks, cfg.ledger),
		admin:     NewAdminService(repo, journal, locks, reconcile, clock),
		journal:   journal,
		receipts:  receipts,
		reconcile: reconcile,
		tokens:    tokens,
	}
}

func (e *testEnv) register(t *testing.T, name string) models.UserView {
	t.Helper()
	session, err := e.identity.Register(context.Background(), RegisterInput{
		FullName: name + " Doe",
		Username: name,
		Email:    name + "@example.com",
		Password: "pw-" + name,
	})
	require.NoError(t, err)
	return *session.User
}

func (e *testEnv) fund(t *testing.T, userID string, amount string) {
	t.Helper()
	_, err := e.ledger.Deposit(context.Background(), userID, dec(amount), "Bank Transfer")
	require.NoError(t, err)
}

func (e *testEnv) setStatus(t *testing.T, userID, status string) {
	t.Helper()
	_, err := e.admin.SetStatus(context.Background(), testAdmin, userID, status)
	require.NoError(t, err)
}

func (e *testEnv) user(t *testing.T, userID string) *models.User {
	t.Helper()
	u, err := e.repo.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u
}

func (e *testEnv) counts(t *testing.T) (txns, receipts int) {
	t.Helper()
	all, err := e.repo.ListTransactions(context.Background())
	require.NoError(t, err)
	users, err := e.repo.ListUsers(context.Background())
	require.NoError(t, err)
	for _, u := range users {
		rs, err := e.repo.ListReceiptsByUser(context.Background(), u.ID)
		require.NoError(t, err)
		receipts += len(rs)
	}
	return len(all), receipts
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// flakyBackend fails saves of one collection on demand.
type flakyBackend struct {
	*repository.MemoryBackend
	mu       sync.Mutex
	failSave map[string]bool
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemoryBackend: repository.NewMemoryBackend(), failSave: map[string]bool{}}
}

func (f *flakyBackend) breakSave(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSave[collection] = true
}

func (f *flakyBackend) Save(ctx context.Context, collection string, body []byte) error {
	f.mu.Lock()
	broken := f.failSave[collection]
	f.mu.Unlock()
	if broken {
		return errBrokenDisk
	}
	return f.MemoryBackend.Save(ctx, collection, body)
}

var errBrokenDisk = errors.New("disk unavailable")

// staleOnceBackend serves a saved blob for the next read of one collection,
// as if that read had happened before the latest write.
type staleOnceBackend struct {
	*repository.MemoryBackend
	mu         sync.Mutex
	collection string
	stale      []byte
}

func (b *staleOnceBackend) serveStale(collection string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collection, b.stale = collection, body
}

func (b *staleOnceBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	b.mu.Lock()
	if b.stale != nil && collection == b.collection {
		body := b.stale
		b.stale = nil
		b.mu.Unlock()
		return body, nil
	}
	b.mu.Unlock()
	return b.MemoryBackend.Load(ctx, collection)
}
