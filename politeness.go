package webrag

import "context"

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// RobotsPolicy decides whether a URL may be fetched.
// The politeness heuristic is pluggable; implementations range from
// robots.txt enforcement to allow-everything.
type RobotsPolicy interface {
	// Allowed reports whether fetching the URL is permitted.
	// Implementations should fail open: if the policy itself cannot be
	// determined, the fetch is allowed.
	Allowed(ctx context.Context, url string) bool
}
