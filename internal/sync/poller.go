package gamesync

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is the fixed polling cadence. The poller is the sole
// non-optional source of truth: the engine stays correct even if the
// transport never connects.
const DefaultPollInterval = 3 * time.Second

// Poller issues a full-state fetch immediately on start and then on a fixed
// cadence. Fetch failures are absorbed (logged by the refresher) and retried
// on the next tick.
type Poller struct {
	refresher *Refresher
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller. A non-positive interval falls back to the
// default cadence.
func NewPoller(refresher *Refresher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{refresher: refresher, interval: interval}
}

// Start begins polling. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		_ = p.refresher.Refresh(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = p.refresher.Refresh(ctx)
			}
		}
	}(p.done)
}

// Stop cancels the poll timer and waits for the loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
