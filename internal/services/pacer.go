package services

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spreads requests over an instance's rate-limit window instead of failing when it runs out.
//
// It starts at a configured ceiling and, after every response, re-targets the rate so that the
// remaining allowance (X-RateLimit-Remaining) lasts until the window resets (X-RateLimit-Reset).
type Pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	ceiling rate.Limit
	now     func() time.Time
}

// NewPacer creates a [Pacer] that never exceeds ceiling requests per second.
func NewPacer(ceiling float64, burst int) *Pacer {
	if ceiling <= 0 {
		ceiling = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Limit(ceiling), burst),
		ceiling: rate.Limit(ceiling),
		now:     time.Now,
	}
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Limit returns the current pace in requests per second.
func (p *Pacer) Limit() rate.Limit {
	return p.limiter.Limit()
}

// Observe adjusts the pace from rate-limit response headers. Responses without them are ignored.
func (p *Pacer) Observe(h http.Header) {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	reset, err := time.Parse(time.RFC3339, h.Get("X-RateLimit-Reset"))
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	window := reset.Sub(now)

	switch {
	case window <= 0:
		p.limiter.SetLimitAt(now, p.ceiling)
	case remaining <= 0:
		p.limiter.SetLimitAt(now, rate.Every(window))
		// spend whatever is banked so the next request really waits for the reset
		if banked := int(p.limiter.TokensAt(now)); banked > 0 {
			p.limiter.AllowN(now, banked)
		}
	default:
		pace := rate.Limit(float64(remaining) / window.Seconds())
		if pace > p.ceiling {
			pace = p.ceiling
		}
		p.limiter.SetLimitAt(now, pace)
	}
}
