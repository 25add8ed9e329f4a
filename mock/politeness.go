package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of webrag.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if l.WaitFn == nil {
		return nil
	}
	return l.WaitFn(ctx, domain)
}

var _ webrag.RobotsPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy is a mock implementation of webrag.RobotsPolicy.
type RobotsPolicy struct {
	AllowedFn func(ctx context.Context, url string) bool
}

func (p *RobotsPolicy) Allowed(ctx context.Context, url string) bool {
	if p.AllowedFn == nil {
		return true
	}
	return p.AllowedFn(ctx, url)
}
