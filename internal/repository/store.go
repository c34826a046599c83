package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ayo6706/banking-ledger/internal/models"
)

// Collection names as they appear in every backend.
const (
	CollectionUsers        = "users"
	CollectionTransactions = "transactions"
	CollectionReceipts     = "receipts"
)

// Backend persists whole collections as opaque JSON blobs. Every mutation
// rewrites the full collection; there are no partial writes.
type Backend interface {
	// Load returns the stored blob, or nil when the collection was never written.
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, body []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// collection is a typed view over one blob. The mutex serializes the
// load-modify-save cycle so concurrent appends in this process never lose records.
type collection[T any] struct {
	name    string
	backend Backend
	mu      sync.Mutex
}

func newCollection[T any](name string, backend Backend) *collection[T] {
	return &collection[T]{name: name, backend: backend}
}

func (c *collection[T]) list(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	body, err := c.backend.Load(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", c.name, models.ErrStorage, err)
	}
	if len(body) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", c.name, models.ErrStorage, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	body, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", c.name, models.ErrStorage, err)
	}
	if err := c.backend.Save(ctx, c.name, body); err != nil {
		return fmt.Errorf("save %s: %w: %w", c.name, models.ErrStorage, err)
	}
	return nil
}

// mutate runs fn against the current contents and persists the result.
func (c *collection[T]) mutate(ctx context.Context, fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return c.save(ctx, next)
}
