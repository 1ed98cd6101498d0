package poll

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is used when Config.Interval is not positive.
const DefaultInterval = 2 * time.Second

// Config holds configuration for the poller.
type Config struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Poller calls a function on a fixed interval from a single goroutine.
type Poller struct {
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a poller with the given configuration.
func New(cfg Config) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Poller{
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the effective polling interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins calling tick every interval until Stop. Ticks never overlap.
func (p *Poller) Start(tick func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return fmt.Errorf("poller already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, tick, p.done)
	return nil
}

// Stop ends the loop and waits for an in-flight tick to finish. After Stop
// returns tick is not called again. Stop must not be called from tick.
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
}

// run blocks until ctx is cancelled.
func (p *Poller) run(ctx context.Context, tick func(), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug("poller started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("poller stopped")
			return
		case <-ticker.C:
			// Stop may have raced with the ticker; honor it first.
			if ctx.Err() != nil {
				p.logger.Debug("poller stopped")
				return
			}
			p.safeTick(tick)
		}
	}
}

func (p *Poller) safeTick(tick func()) {
	// Recover from panics to keep polling alive
	defer func() {
		if err := recover(); err != nil {
			p.logger.Error("poller panic recovered", "error", err)
		}
	}()
	tick()
}
