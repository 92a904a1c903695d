package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Refresher recomputes aggregates for every account.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

type RefreshProcessorConfig struct {
	// Interval between refresh passes (default: 15m)
	Interval time.Duration
}

func DefaultRefreshProcessorConfig() RefreshProcessorConfig {
	return RefreshProcessorConfig{Interval: 15 * time.Minute}
}

// RefreshProcessor periodically recomputes windowed totals so that day, week,
// month and year rollovers show up without a new transaction.
type RefreshProcessor struct {
	ledger Refresher
	config RefreshProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefreshProcessor(ledger Refresher, config RefreshProcessorConfig) *RefreshProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRefreshProcessorConfig().Interval
	}
	return &RefreshProcessor{
		ledger: ledger,
		config: config,
	}
}

// Start launches the loop. It returns an error if already running.
func (p *RefreshProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("refresh processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Refresh processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for it or for ctx.
func (p *RefreshProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Refresh processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// Run starts the processor and blocks until ctx is done.
func (p *RefreshProcessor) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Stop(stopCtx)
}

func (p *RefreshProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RefreshProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.RefreshOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce runs a single pass.
func (p *RefreshProcessor) RefreshOnce(ctx context.Context) {
	start := time.Now()
	n, err := p.ledger.RefreshAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Aggregate refresh failed", "refreshed", n, "error", err)
		return
	}
	slog.DebugContext(ctx, "Aggregates refreshed", "accounts", n, "duration", time.Since(start))
}
