package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/skistats/fis-analytics/pkg/utils"
)

// RateLimit applies a token-bucket limit per client IP. rps is the sustained
// rate, burst the bucket size. Limiters are kept per IP for the process
// lifetime; the set stays small behind typical ingress.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = limiter
		}
		return limiter
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			utils.SendRateLimited(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
