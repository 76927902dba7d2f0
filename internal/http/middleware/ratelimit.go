package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepEach = 5 * time.Minute
)

// ClientLimiter keeps one token bucket per client address.
type ClientLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientEntry
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows rps requests per second per client with the given
// burst. A non-positive rps disables limiting.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limiters: make(map[string]*clientEntry),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether a request from client may proceed now.
func (cl *ClientLimiter) Allow(client string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	cl.sweep(now)
	entry, ok := cl.limiters[client]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.limiters[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle clients. Callers hold mu.
func (cl *ClientLimiter) sweep(now time.Time) {
	if now.Sub(cl.lastSweep) < limiterSweepEach {
		return
	}
	cl.lastSweep = now
	cutoff := now.Add(-limiterIdleTTL)
	for client, entry := range cl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(cl.limiters, client)
		}
	}
}

func (cl *ClientLimiter) tracked() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.limiters)
}

// RateLimit rejects requests beyond the per-client budget with 429.
func RateLimit(limiter *ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientAddress(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddress prefers X-Real-Ip (set by chi's RealIP) over the socket peer.
func clientAddress(r *http.Request) string {
	if xri := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
