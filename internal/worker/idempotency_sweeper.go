package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayo6706/banking-ledger/internal/observability"
	"go.uber.org/zap"
)

// Sweeper drops expired records from an in-process cache.
type Sweeper interface {
	Sweep() int
}

// IdempotencySweeper evicts expired in-process idempotency records. Redis
// expires its own keys, so the sweep finds nothing there.
type IdempotencySweeper struct {
	store        Sweeper
	pollInterval time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewIdempotencySweeper(store Sweeper) *IdempotencySweeper {
	return &IdempotencySweeper{
		store:        store,
		pollInterval: time.Minute,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval sets how often expired records are evicted.
func (w *IdempotencySweeper) WithPollInterval(interval time.Duration) *IdempotencySweeper {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

// Start blocks until Stop is called or the context is canceled.
func (w *IdempotencySweeper) Start(ctx context.Context) {
	zap.L().Info("idempotency sweeper starting", zap.Duration("interval", w.pollInterval))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

func (w *IdempotencySweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// SweepOnce evicts immediately and reports how many records went.
func (w *IdempotencySweeper) SweepOnce() int {
	removed := w.store.Sweep()
	observability.IncrementWorkerRun("idempotency_sweep", "success")
	if removed > 0 {
		zap.L().Debug("idempotency records evicted", zap.Int("removed", removed))
	}
	return removed
}

// Run starts the sweeper in a goroutine and returns a stop function.
func (w *IdempotencySweeper) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *IdempotencySweeper) String() string {
	return fmt.Sprintf("IdempotencySweeper(interval=%v)", w.pollInterval)
}
