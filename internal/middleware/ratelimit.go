package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key (client IP or owner id).
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedRateLimiter allows requests per window, refilled evenly, with a burst of requests.
func NewKeyedRateLimiter(requests int, window time.Duration) *KeyedRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	return &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		idle:     2 * window,
	}
}

func (r *KeyedRateLimiter) Allow(key string) bool {
	now := time.Now()
	r.mu.Lock()
	e, ok := r.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = e
	}
	e.lastSeen = now
	r.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Prune drops buckets idle for longer than two windows.
func (r *KeyedRateLimiter) Prune() {
	cutoff := time.Now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, e := range r.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(r.limiters, k)
		}
	}
}

func (r *KeyedRateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// RateLimit keys by owner id when it runs after AuthRequired, else by client IP.
func RateLimit(limiter *KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetUserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
