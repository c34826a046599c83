package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ayo6706/banking-ledger/internal/models"
)

// Repository exposes get/put/list over the users, transactions and receipts
// collections of a Backend.
type Repository struct {
	backend      Backend
	users        *collection[models.User]
	transactions *collection[models.Transaction]
	receipts     *collection[models.Receipt]
}

func NewRepository(backend Backend) *Repository {
	return &Repository{
		backend:      backend,
		users:        newCollection[models.User](CollectionUsers, backend),
		transactions: newCollection[models.Transaction](CollectionTransactions, backend),
		receipts:     newCollection[models.Receipt](CollectionReceipts, backend),
	}
}

// Ping checks the underlying backend.
func (r *Repository) Ping(ctx context.Context) error {
	return r.backend.Ping(ctx)
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.users.list(ctx)
}

func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	return r.findUser(ctx, "id", func(u models.User) bool { return u.ID == id })
}

// FindUserByLogin matches either the email or the username.
func (r *Repository) FindUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	return r.findUser(ctx, "login", func(u models.User) bool {
		return strings.EqualFold(u.Email, identifier) || u.Username == identifier
	})
}

func (r *Repository) FindUserByAccountNumber(ctx context.Context, accountNumber string) (*models.User, error) {
	return r.findUser(ctx, "account number", func(u models.User) bool { return u.AccountNumber == accountNumber })
}

func (r *Repository) findUser(ctx context.Context, by string, match func(models.User) bool) (*models.User, error) {
	users, err := r.users.list(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(users[i]) {
			u := users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user by %s: %w", by, models.ErrNotFound)
}

// CreateUser inserts a user, rejecting duplicate ids, emails, usernames and
// account numbers.
func (r *Repository) CreateUser(ctx context.Context, user models.User) error {
	return r.users.mutate(ctx, func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			switch {
			case u.ID == user.ID:
				return nil, fmt.Errorf("user id: %w", models.ErrConflict)
			case strings.EqualFold(u.Email, user.Email), u.Username == user.Username:
				return nil, fmt.Errorf("user: %w", models.ErrConflict)
			case u.AccountNumber == user.AccountNumber:
				return nil, fmt.Errorf("account number: %w", models.ErrConflict)
			}
		}
		return append(users, user), nil
	})
}

// PutUsers replaces existing users by id in a single write. All ids must exist.
func (r *Repository) PutUsers(ctx context.Context, updated ...models.User) error {
	return r.users.mutate(ctx, func(users []models.User) ([]models.User, error) {
		for _, u := range updated {
			idx := indexOf(users, func(x models.User) bool { return x.ID == u.ID })
			if idx < 0 {
				return nil, fmt.Errorf("user %s: %w", u.ID, models.ErrNotFound)
			}
			users[idx] = u
		}
		return users, nil
	})
}

func (r *Repository) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	var deleted models.User
	err := r.users.mutate(ctx, func(users []models.User) ([]models.User, error) {
		idx := indexOf(users, func(x models.User) bool { return x.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
		}
		deleted = users[idx]
		return append(users[:idx], users[idx+1:]...), nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (r *Repository) AppendTransactions(ctx context.Context, txs ...models.Transaction) error {
	return r.transactions.mutate(ctx, func(items []models.Transaction) ([]models.Transaction, error) {
		return append(items, txs...), nil
	})
}

// ListTransactions returns the journal newest first.
func (r *Repository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	items, err := r.transactions.list(ctx)
	if err != nil {
		return nil, err
	}
	return newestFirst(items, func(t models.Transaction) int64 { return t.Timestamp.UnixNano() }), nil
}

func (r *Repository) ListTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	items, err := r.transactions.list(ctx)
	if err != nil {
		return nil, err
	}
	items = filter(items, func(t models.Transaction) bool { return t.UserID == userID })
	return newestFirst(items, func(t models.Transaction) int64 { return t.Timestamp.UnixNano() }), nil
}

func (r *Repository) DeleteTransactionsByUser(ctx context.Context, userID string) (int, error) {
	removed := 0
	err := r.transactions.mutate(ctx, func(items []models.Transaction) ([]models.Transaction, error) {
		kept := filter(items, func(t models.Transaction) bool { return t.UserID != userID })
		removed = len(items) - len(kept)
		return kept, nil
	})
	return removed, err
}

func (r *Repository) AppendReceipts(ctx context.Context, receipts ...models.Receipt) error {
	return r.receipts.mutate(ctx, func(items []models.Receipt) ([]models.Receipt, error) {
		return append(items, receipts...), nil
	})
}

func (r *Repository) ListReceiptsByUser(ctx context.Context, userID string) ([]models.Receipt, error) {
	items, err := r.receipts.list(ctx)
	if err != nil {
		return nil, err
	}
	items = filter(items, func(rc models.Receipt) bool { return rc.UserID == userID })
	return newestFirst(items, func(rc models.Receipt) int64 { return rc.Timestamp.UnixNano() }), nil
}

func (r *Repository) DeleteReceiptsByUser(ctx context.Context, userID string) (int, error) {
	removed := 0
	err := r.receipts.mutate(ctx, func(items []models.Receipt) ([]models.Receipt, error) {
		kept := filter(items, func(rc models.Receipt) bool { return rc.UserID != userID })
		removed = len(items) - len(kept)
		return kept, nil
	})
	return removed, err
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i := range items {
		if match(items[i]) {
			return i
		}
	}
	return -1
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// newestFirst orders by timestamp descending; among equal timestamps the most
// recently appended record comes first.
func newestFirst[T any](items []T, ts func(T) int64) []T {
	out := make([]T, len(items))
	for i := range items {
		out[len(items)-1-i] = items[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return ts(out[i]) > ts(out[j]) })
	return out
}
