package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/observability"
	"github.com/ayo6706/banking-ledger/internal/service"
	"go.uber.org/zap"
)

// Reconciler recomputes balances from the journal.
type Reconciler interface {
	Reconcile(ctx context.Context) (*service.ReconciliationReport, error)
}

// ReconciliationWorker compares every stored balance against the journal on a
// fixed interval, once at startup and then on each tick.
type ReconciliationWorker struct {
	reconciler Reconciler
	interval   time.Duration
	running    atomic.Bool
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewReconciliationWorker(reconciler Reconciler) *ReconciliationWorker {
	return &ReconciliationWorker{
		reconciler: reconciler,
		interval:   time.Hour,
		stopCh:     make(chan struct{}),
	}
}

// WithInterval overrides the hourly default. Non-positive values are ignored.
func (w *ReconciliationWorker) WithInterval(interval time.Duration) *ReconciliationWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

func (w *ReconciliationWorker) Start(ctx context.Context) {
	zap.L().Info("reconciliation worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	_, _ = w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("reconciliation worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			_, _ = w.RunOnce(ctx)
		}
	}
}

func (w *ReconciliationWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *ReconciliationWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// RunOnce reconciles immediately. A call that overlaps a run still in
// progress is skipped and returns a nil report.
func (w *ReconciliationWorker) RunOnce(ctx context.Context) (*service.ReconciliationReport, error) {
	if !w.running.CompareAndSwap(false, true) {
		observability.IncrementWorkerRun("reconciliation", "skipped")
		return nil, nil
	}
	defer w.running.Store(false)

	report, err := w.reconciler.Reconcile(ctx)
	if err != nil {
		observability.IncrementWorkerRun("reconciliation", "failed")
		zap.L().Error("reconciliation run failed", zap.Error(err))
		return nil, err
	}
	if report.Balanced {
		observability.IncrementWorkerRun("reconciliation", "balanced")
		zap.L().Info("ledger balanced", zap.Int("users_checked", report.UsersChecked))
		return report, nil
	}

	observability.IncrementWorkerRun("reconciliation", "mismatch")
	for _, m := range report.Mismatches {
		zap.L().Error("ledger balance mismatch",
			zap.String("user_id", m.UserID),
			zap.String("account_number", m.AccountNumber),
			zap.String("balance", domain.FormatUSD(m.Balance)),
			zap.String("expected", domain.FormatUSD(m.Expected)),
		)
	}
	return report, nil
}
