// Package ratelimit provides per-client admission control over a sliding
// 60-second window.
package ratelimit

import (
	"sync"
	"time"
)

// Window is the trailing interval over which requests are counted.
const Window = 60 * time.Second

// Limiter admits at most threshold requests per client key per trailing
// window. It is safe for concurrent use; a single mutex guards the whole map
// so a read-prune-append-decide cycle never interleaves across callers.
type Limiter struct {
	mu        sync.Mutex
	threshold int
	enabled   bool
	now       func() time.Time
	seen      map[string][]time.Time
}

// New constructs a Limiter. When enabled is false, Allow always admits.
// A threshold of zero rejects every request deterministically.
func New(threshold int, enabled bool) *Limiter {
	return &Limiter{
		threshold: threshold,
		enabled:   enabled,
		now:       time.Now,
		seen:      make(map[string][]time.Time),
	}
}

// Allow records the current request for clientKey and reports whether it is
// admitted. Rejected requests still occupy a window slot, so a client hammering
// past the threshold stays rejected until it backs off. Allow never errors.
func (l *Limiter) Allow(clientKey string) bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-Window)

	kept := l.seen[clientKey][:0]
	for _, ts := range l.seen[clientKey] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	l.seen[clientKey] = kept

	return len(kept) <= l.threshold
}

// prune drops idle keys so the map does not grow without bound. Called
// periodically by Run.
func (l *Limiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-Window)
	for key, stamps := range l.seen {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(l.seen, key)
		}
	}
}

// Run prunes idle clients every window until stop is closed.
func (l *Limiter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(Window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.prune()
		case <-stop:
			return
		}
	}
}
