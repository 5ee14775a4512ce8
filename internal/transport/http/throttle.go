package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginThrottle limits login attempts per email with a token bucket.
type loginThrottle struct {
	mu        sync.Mutex
	limiters  map[string]*throttleEntry
	every     time.Duration
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLoginThrottle(every time.Duration, burst int) *loginThrottle {
	if burst <= 0 || every <= 0 {
		return nil
	}
	return &loginThrottle{
		limiters: make(map[string]*throttleEntry),
		every:    every,
		burst:    burst,
		idle:     every * time.Duration(burst) * 2,
		now:      time.Now,
	}
}

// Allow reports whether another attempt for key may proceed. A nil throttle
// allows everything.
func (t *loginThrottle) Allow(key string) bool {
	if t == nil || key == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= t.idle {
		t.evictIdle(now)
		t.lastSweep = now
	}
	e, ok := t.limiters[key]
	if !ok {
		e = &throttleEntry{lim: rate.NewLimiter(rate.Every(t.every), t.burst)}
		t.limiters[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// evictIdle runs at most once per idle window.
func (t *loginThrottle) evictIdle(now time.Time) {
	for k, e := range t.limiters {
		if now.Sub(e.lastSeen) > t.idle {
			delete(t.limiters, k)
		}
	}
}
