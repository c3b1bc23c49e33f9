package middleware

import (
	"strings"
	"sync"
	"time"

	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// CallerLimiter applies a token bucket per caller and periodically evicts idle entries.
type CallerLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewCallerLimiter returns nil (no limiting) if rps or burst is not positive.
func NewCallerLimiter(rps float64, burst int, idleTTL time.Duration) *CallerLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &CallerLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*limiterEntry),
		idleTTL: idleTTL,
	}
}

// Allow reports whether one token can be consumed for key at now.
func (l *CallerLimiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &limiterEntry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastSeen: now,
		}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}
	return allowed
}

// RateLimit throttles requests per caller identity, falling back to client IP.
func RateLimit(l *CallerLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := GetCaller(c)
		if key == "" {
			key = "ip:" + c.IP()
		}
		if !l.Allow(key, time.Now()) {
			return response.Error(c, "Too many requests", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
