package bling

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const DefaultGateInterval = 350 * time.Millisecond

// Gate spaces the start of upstream requests by a minimum interval. Waiters
// are admitted in the order they arrive. A single Gate must be shared by
// every client that talks to the same upstream, otherwise the spacing only
// holds per client.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewGate returns a gate admitting one request per interval. A zero interval
// admits everything immediately.
func NewGate(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until the caller may start its request. Each call reserves the
// slot right after the previous reservation, so release order matches call
// order.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

func (g *Gate) Interval() time.Duration {
	return g.interval
}
