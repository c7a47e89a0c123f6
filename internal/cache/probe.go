// Package cache holds the one in-process memoization the system carries:
// a short-lived record of the last backend health probe. Answers are never
// cached and no external cache exists.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Probe memoizes the result of a boolean check for a fixed window.
// Concurrent callers share a single in-flight check.
type Probe struct {
	ttl time.Duration
	sf  singleflight.Group

	mu      sync.Mutex
	ok      bool
	checked time.Time
}

// NewProbe builds a probe memo. A non-positive ttl disables memoization,
// so every call runs the check (concurrent callers still share one).
func NewProbe(ttl time.Duration) *Probe {
	return &Probe{ttl: ttl}
}

// Check returns the memoized result when fresh, otherwise runs fn and
// records its result. Both healthy and unhealthy results are memoized.
func (p *Probe) Check(fn func() bool) bool {
	if p.ttl > 0 {
		p.mu.Lock()
		if !p.checked.IsZero() && time.Since(p.checked) < p.ttl {
			ok := p.ok
			p.mu.Unlock()
			return ok
		}
		p.mu.Unlock()
	}

	v, _, _ := p.sf.Do("probe", func() (any, error) {
		ok := fn()
		p.mu.Lock()
		p.ok = ok
		p.checked = time.Now()
		p.mu.Unlock()
		return ok, nil
	})
	return v.(bool)
}
