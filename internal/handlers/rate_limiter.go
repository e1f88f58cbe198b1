package handlers

import (
	"strings"
	"sync"
	"time"
)

type rateLimiter interface {
	// Allow records one attempt for key. When the attempt is over the limit it returns false
	// and the time until the key's window resets.
	Allow(key string) (bool, time.Duration)
}

// windowLimiter is a fixed-window counter per key.
type windowLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu        sync.Mutex
	windows   map[string]window
	lastPrune time.Time
}

type window struct {
	count int
	reset time.Time
}

func newSimpleRateLimiter(limit int, span time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || span <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &windowLimiter{
		limit:   limit,
		window:  span,
		clock:   clock,
		windows: make(map[string]window),
	}
}

func (l *windowLimiter) Allow(key string) (bool, time.Duration) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) >= l.window {
		for k, w := range l.windows {
			if !now.Before(w.reset) {
				delete(l.windows, k)
			}
		}
		l.lastPrune = now
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		l.windows[key] = window{count: 1, reset: now.Add(l.window)}
		return true, 0
	}
	if w.count >= l.limit {
		return false, w.reset.Sub(now)
	}
	w.count++
	l.windows[key] = w
	return true, 0
}
