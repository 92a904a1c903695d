package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshAll(context.Context) (int, error) {
	r.calls.Add(1)
	return 1, r.err
}

func TestDefaultRefreshProcessorConfig(t *testing.T) {
	if got := DefaultRefreshProcessorConfig().Interval; got != 15*time.Minute {
		t.Errorf("expected 15m, got %v", got)
	}
	if p := NewRefreshProcessor(&countingRefresher{}, RefreshProcessorConfig{}); p.config.Interval != 15*time.Minute {
		t.Errorf("zero interval should fall back to default, got %v", p.config.Interval)
	}
}

func TestRefreshProcessor_Lifecycle(t *testing.T) {
	r := &countingRefresher{}
	p := NewRefreshProcessor(r, RefreshProcessorConfig{Interval: 10 * time.Millisecond})
	ctx := context.Background()

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("second start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.calls.Load() < 2 {
		t.Fatalf("expected at least 2 refresh passes, got %d", r.calls.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("processor should be stopped")
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stopping a stopped processor should be a no-op: %v", err)
	}
}

func TestRefreshProcessor_RunStopsWithContext(t *testing.T) {
	p := NewRefreshProcessor(&countingRefresher{}, RefreshProcessorConfig{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRefreshProcessor_RefreshOnceToleratesErrors(t *testing.T) {
	r := &countingRefresher{err: errors.New("db locked")}
	p := NewRefreshProcessor(r, DefaultRefreshProcessorConfig())

	p.RefreshOnce(context.Background())
	p.RefreshOnce(context.Background())

	if got := r.calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestRefreshProcessor_RecomputesAtServiceClock(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t)
	receipt := record(t, ledger, nil, "Spending", "8")

	// A day later the daily window is empty while the week still holds it.
	if _, err := ledger.RefreshAggregates(ctx, receipt.AccountID, time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap, _ := ledger.GetBalanceSnapshot(ctx, receipt.AccountID)
	if !snap.Daily.IsZero() || !snap.Weekly.Equal(decimal.NewFromInt(8)) || !snap.Balance.Equal(decimal.NewFromInt(-8)) {
		t.Fatalf("unexpected snapshot after rollover: %+v", snap)
	}

	// A processor pass uses the ledger clock, which is still on the day of the spend.
	NewRefreshProcessor(ledger, DefaultRefreshProcessorConfig()).RefreshOnce(ctx)
	snap, _ = ledger.GetBalanceSnapshot(ctx, receipt.AccountID)
	if !snap.Daily.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("daily = %s, want 8", snap.Daily)
	}
}
