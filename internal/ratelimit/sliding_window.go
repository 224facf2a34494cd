// Package ratelimit implements a single-process, sliding-window admission
// controller keyed by client identity. Each key holds the timestamps of its
// accepted requests within the trailing window; a request is denied once the
// window already contains the maximum.
//
// The limiter is process-local: limits are not enforced globally across
// horizontally scaled deployments, and state does not survive restarts. This
// is a documented property of the design, not a bug.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxRequests is the per-window admission cap per client.
	DefaultMaxRequests = 5
	// DefaultWindow is the trailing interval considered for admission.
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of an admission check. When a request is denied,
// RetryAfter is how long the client must wait until the oldest in-window
// request falls out of the window.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// window holds the accepted-request timestamps for one client key.
type window struct {
	stamps []time.Time
}

// SlidingWindow is a per-key sliding-window limiter. Windows are created on
// demand and stored in an internal map guarded by a mutex; emptied windows are
// evicted opportunistically during checks to keep memory usage bounded.
//
// This type is safe for concurrent use.
type SlidingWindow struct {
	max    int
	span   time.Duration
	mu     sync.Mutex
	wins   map[string]*window
	checks uint64
}

// NewSlidingWindow constructs a limiter admitting max requests per span for
// each key. Non-positive arguments are coerced to the defaults.
func NewSlidingWindow(max int, span time.Duration) *SlidingWindow {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if span <= 0 {
		span = DefaultWindow
	}
	return &SlidingWindow{
		max:  max,
		span: span,
		wins: make(map[string]*window),
	}
}

// Check evaluates admission for key at time now.
//
// Timestamps older than now−span are pruned first. If the remaining count has
// reached the cap, the request is denied with a retry-after computed from the
// oldest surviving timestamp; otherwise now is appended and the request is
// admitted.
func (sw *SlidingWindow) Check(key string, now time.Time) Decision {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	// Opportunistic cleanup of idle keys after a threshold of checks. A key
	// whose window is fully expired holds no admission state and can go.
	sw.checks++
	if sw.checks >= 4096 {
		cutoff := now.Add(-sw.span)
		for k, w := range sw.wins {
			if len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(cutoff) {
				delete(sw.wins, k)
			}
		}
		sw.checks = 0
	}

	w := sw.wins[key]
	if w == nil {
		w = &window{}
		sw.wins[key] = w
	}

	// Prune everything outside the trailing window.
	cutoff := now.Add(-sw.span)
	keep := w.stamps[:0]
	for _, ts := range w.stamps {
		if !ts.Before(cutoff) {
			keep = append(keep, ts)
		}
	}
	w.stamps = keep

	if len(w.stamps) >= sw.max {
		oldest := w.stamps[0]
		return Decision{
			Allowed:    false,
			RetryAfter: sw.span - now.Sub(oldest),
		}
	}

	w.stamps = append(w.stamps, now)
	return Decision{Allowed: true}
}
