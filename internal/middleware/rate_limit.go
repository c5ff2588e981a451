package middleware

import (
	"net/http"
	"sync"

	"go-bizops/internal/shared/apperror"
	"go-bizops/internal/shared/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyedLimiter hands out one token bucket per key (client IP or actor id).
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newKeyedLimiter(limit rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (k *keyedLimiter) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	limiter, ok := k.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = limiter
	}
	return limiter
}

// RateLimitByIP throttles each client IP to limit requests per second with
// the given burst capacity.
func RateLimitByIP(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := newKeyedLimiter(limit, burst)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			response.Error(c, http.StatusTooManyRequests, apperror.CodeRateLimited, "too many requests from this address", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitByActor throttles per authenticated actor. Unauthenticated
// requests pass through; the IP limiter already covers them.
func RateLimitByActor(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := newKeyedLimiter(limit, burst)
	return func(c *gin.Context) {
		actorID := c.GetString("employee_id")
		if actorID == "" {
			c.Next()
			return
		}
		if !limiter.get(actorID).Allow() {
			response.Error(c, http.StatusTooManyRequests, apperror.CodeRateLimited, "too many requests for this actor", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
