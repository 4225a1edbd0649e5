// Package poller keeps a notification store approximately fresh without
// manual refresh.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"borrowhub-notify/internal/common/logger"
	"borrowhub-notify/internal/common/metrics"
)

// Fetcher is the single store operation the poller drives.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Poller issues an immediate fetch on Start and then one per interval until
// Stop. Stop is mandatory teardown: it cancels the recurring fetch and waits
// for the loop to exit, so no fetch can land on a torn-down consumer.
//
// Several pollers may drive the same store; fetch is idempotent and
// convergent, so overlapping cadences are wasteful but harmless.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(fetcher Fetcher, interval time.Duration, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   log.WithFields(map[string]interface{}{"component": "poller"}),
	}
}

// Start activates the poller. It returns an error when already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return fmt.Errorf("poller already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(runCtx, p.done)

	p.logger.Info("poller started", map[string]interface{}{"interval": p.interval.String()})
	return nil
}

// Stop cancels the recurring fetch and blocks until the loop has exited.
// Stopping a poller that never started is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("poller stopped", nil)
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.fetchOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchOnce(ctx)
		}
	}
}

func (p *Poller) fetchOnce(ctx context.Context) {
	err := p.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		// Late response after Stop; the owning session is gone.
		return
	}
	if err != nil {
		metrics.PollerFetchesTotal.WithLabelValues("failure").Inc()
		p.logger.Warn("scheduled fetch failed", map[string]interface{}{"error": err.Error()})
		return
	}
	metrics.PollerFetchesTotal.WithLabelValues("success").Inc()
}
