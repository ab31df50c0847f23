package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter guards the credential endpoints against brute-force attempts.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest consults the limiter using a scope-qualified client key. A nil
// limiter disables throttling.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}

	key := clientIP(r)
	if scope != "" {
		key = scope + ":" + key
	}
	return limiter.Allow(key)
}

// clientIP resolves the caller's address, preferring the first entry of an
// X-Forwarded-For header set by a fronting proxy.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
