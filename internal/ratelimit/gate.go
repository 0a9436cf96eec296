// Package ratelimit provides a minimum-interval gate for sequential calls
// to rate-limited upstream services.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Gate enforces a minimum interval between successive calls. Waiting
// between routing requests is part of the upstream contract, not an
// optimisation, so the gate sits in front of every call.
type Gate struct {
	clock    clockwork.Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewGate creates a gate backed by the real clock.
func NewGate(interval time.Duration) *Gate {
	return NewGateWithClock(interval, clockwork.NewRealClock())
}

// NewGateWithClock creates a gate with an injected clock so tests control
// the passage of time.
func NewGateWithClock(interval time.Duration, clock clockwork.Clock) *Gate {
	return &Gate{clock: clock, interval: interval}
}

// Wait blocks until at least the configured interval has elapsed since the
// previous call returned from Wait. The first call passes immediately.
// Returns the context's error if it is already cancelled or becomes
// cancelled while waiting.
func (g *Gate) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		remaining := g.interval - g.clock.Since(g.last)
		if remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-g.clock.After(remaining):
			}
		}
	}

	g.last = g.clock.Now()
	return nil
}
