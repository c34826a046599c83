package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayo6706/banking-ledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	runs       atomic.Int32
	err        error
	mismatches []service.BalanceMismatch
}

func (c *countingReconciler) Reconcile(context.Context) (*service.ReconciliationReport, error) {
	c.runs.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &service.ReconciliationReport{
		UsersChecked: 2,
		Balanced:     len(c.mismatches) == 0,
		Mismatches:   c.mismatches,
	}, nil
}

// blockingReconciler holds its first run open until release is closed.
type blockingReconciler struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingReconciler) Reconcile(context.Context) (*service.ReconciliationReport, error) {
	close(b.entered)
	<-b.release
	return &service.ReconciliationReport{Balanced: true}, nil
}

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 2
}

func TestReconciliationWorkerRunsImmediatelyAndOnTick(t *testing.T) {
	rec := &countingReconciler{}
	stop := NewReconciliationWorker(rec).WithInterval(10 * time.Millisecond).Run(context.Background())
	defer stop()

	require.Eventually(t, func() bool { return rec.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestReconciliationWorkerKeepsGoingAfterFailure(t *testing.T) {
	rec := &countingReconciler{err: errors.New("journal unreadable")}
	stop := NewReconciliationWorker(rec).WithInterval(10 * time.Millisecond).Run(context.Background())
	defer stop()

	require.Eventually(t, func() bool { return rec.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestReconciliationWorkerStopsOnCancel(t *testing.T) {
	rec := &countingReconciler{}
	ctx, cancel := context.WithCancel(context.Background())
	w := NewReconciliationWorker(rec).WithInterval(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return rec.runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	// double stop is harmless
	w.Stop()
	w.Stop()
}

func TestReconciliationWorkerRunOnceReportsMismatches(t *testing.T) {
	rec := &countingReconciler{mismatches: []service.BalanceMismatch{{
		UserID:     "u1",
		Balance:    decimal.NewFromInt(10),
		Expected:   decimal.NewFromInt(7),
		Difference: decimal.NewFromInt(3),
	}}}
	report, err := NewReconciliationWorker(rec).RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Balanced)
	assert.Len(t, report.Mismatches, 1)

	failing := &countingReconciler{err: errors.New("boom")}
	_, err = NewReconciliationWorker(failing).RunOnce(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestReconciliationWorkerSkipsOverlappingRuns(t *testing.T) {
	rec := &blockingReconciler{entered: make(chan struct{}), release: make(chan struct{})}
	w := NewReconciliationWorker(rec)

	done := make(chan struct{})
	go func() {
		_, _ = w.RunOnce(context.Background())
		close(done)
	}()
	<-rec.entered

	report, err := w.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, report)

	close(rec.release)
	<-done
}

func TestReconciliationWorkerIgnoresNonPositiveInterval(t *testing.T) {
	w := NewReconciliationWorker(&countingReconciler{}).WithInterval(0)
	assert.Equal(t, time.Hour, w.interval)
}

func TestIdempotencySweeper(t *testing.T) {
	store := &countingSweeper{}
	w := NewIdempotencySweeper(store).WithPollInterval(5 * time.Millisecond)
	assert.Equal(t, 2, w.SweepOnce())
	assert.Equal(t, "IdempotencySweeper(interval=5ms)", w.String())

	stop := w.Run(context.Background())
	require.Eventually(t, func() bool { return store.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	stop()
	stop()
}
