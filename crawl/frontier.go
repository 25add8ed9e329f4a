package crawl

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Frontier is the queue of not-yet-fetched URLs with their crawl depth.
// URLs are deduplicated with a Bloom filter over their normalized form, and
// a per-domain fetch budget is enforced at enqueue time. It is safe for
// concurrent use by multiple goroutines.
type Frontier struct {
	mu           sync.Mutex
	seen         *bloom.BloomFilter
	queue        []Entry
	domainCounts map[string]int
	maxPerDomain int
	capByDomain  bool
}

// Entry is one frontier item: a normalized URL and the depth it was
// discovered at. Seeds sit at depth 0.
type Entry struct {
	URL    string
	Domain string
	Depth  int
}

// NewFrontier creates a Frontier sized for n expected URLs with the given
// false positive rate for deduplication. maxPerDomain <= 0 disables the
// per-domain budget.
func NewFrontier(n uint, fpRate float64, maxPerDomain int) *Frontier {
	return &Frontier{
		seen:         bloom.NewWithEstimates(n, fpRate),
		domainCounts: make(map[string]int),
		maxPerDomain: maxPerDomain,
		capByDomain:  maxPerDomain > 0,
	}
}

// Push adds an entry to the frontier. Returns false if the URL has already
// been seen or the entry's domain has exhausted its budget. Pushing charges
// the domain budget immediately, so a pushed entry is always allowed to
// fetch.
func (f *Frontier) Push(e Entry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.TestString(e.URL) {
		return false
	}
	if f.capByDomain && f.domainCounts[e.Domain] >= f.maxPerDomain {
		return false
	}

	f.seen.AddString(e.URL)
	f.domainCounts[e.Domain]++
	f.queue = append(f.queue, e)
	return true
}

// Pop returns the next entry in breadth-first order.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return Entry{}, false
	}
	e := f.queue[0]
	f.queue = f.queue[1:]
	return e, true
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen returns true if the URL has been queued before.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.TestString(url)
}

// DomainCount returns how much of the domain's budget has been consumed.
func (f *Frontier) DomainCount(domain string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domainCounts[domain]
}
