package signaling

import (
	"sync"
	"time"
)

const (
	rateWindow    = time.Minute
	rateLimit     = 10
	rateBlockTime = 5 * time.Minute
)

// addressLimiter is a sliding-window rate limiter keyed by source
// address. Exceeding the window blocks the address outright for a while.
type addressLimiter struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	blocked map[string]time.Time
	now     func() time.Time
}

func newAddressLimiter() *addressLimiter {
	return &addressLimiter{
		hits:    make(map[string][]time.Time),
		blocked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Allow records an attempt from addr and reports whether it may proceed.
func (l *addressLimiter) Allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.blocked[addr]; ok {
		if now.Before(until) {
			return false
		}
		delete(l.blocked, addr)
	}

	fresh := l.hits[addr][:0]
	for _, at := range l.hits[addr] {
		if now.Sub(at) < rateWindow {
			fresh = append(fresh, at)
		}
	}
	fresh = append(fresh, now)
	l.hits[addr] = fresh

	if len(fresh) > rateLimit {
		l.blocked[addr] = now.Add(rateBlockTime)
		delete(l.hits, addr)
		return false
	}
	return true
}
