package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/webrag"
	"golang.org/x/time/rate"
)

var _ webrag.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-domain politeness delays using token buckets.
// It creates a separate rate limiter for each domain, allowing concurrent
// requests to different domains while spacing out requests within each
// domain.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter that spaces same-domain requests
// by at least delay. Each domain gets its own limiter with a burst of 1, so
// two requests to one domain can never start within the delay window.
func NewDomainLimiter(delay time.Duration) *DomainLimiter {
	rps := float64(rate.Inf)
	if delay > 0 {
		rps = 1 / delay.Seconds()
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
