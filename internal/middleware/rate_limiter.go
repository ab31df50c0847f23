package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter controls how frequently a caller may perform an action.
type RateLimiter interface {
	Allow(key string) bool
}

// keyedRateLimiter tracks request rates per key (typically a client address)
// and expires idle entries.
type keyedRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// NewIPRateLimiter builds a per-key limiter that allows up to `requests` events
// per `window` plus a burst allowance. Idle entries are dropped after ttl.
func NewIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &keyedRateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *keyedRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	c := l.clientLocked(key, now)
	l.expireLocked(now)
	l.mu.Unlock()

	return c.limiter.Allow()
}

func (l *keyedRateLimiter) clientLocked(key string, now time.Time) *client {
	if c, ok := l.clients[key]; ok {
		c.lastSeen = now
		return c
	}

	c := &client{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.clients[key] = c
	return c
}

func (l *keyedRateLimiter) expireLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.ttl {
			delete(l.clients, key)
		}
	}
}

// WithNowFunc lets tests override the time source.
func (l *keyedRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
