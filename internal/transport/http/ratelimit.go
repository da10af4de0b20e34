package http

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	rateLimiterClients = 10_000
	rateLimiterTTL     = 10 * time.Minute
)

// rateLimiter allows each key limit attempts per minute, refilled gradually.
type rateLimiter struct {
	limit    int
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit:    limit,
		limiters: expirable.NewLRU[string, *rate.Limiter](rateLimiterClients, nil, rateLimiterTTL),
	}
}

// allow consumes one attempt for key. When refused it reports how long until the next attempt.
func (r *rateLimiter) allow(key string) (bool, time.Duration) {
	if r == nil || r.limit <= 0 {
		return true, 0
	}

	reservation := r.limiterFor(key).Reserve()
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

func (r *rateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.limit)), r.limit)
		r.limiters.Add(key, limiter)
	}
	return limiter
}
