package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/portal/backend/internal/infrastructure/cache"
)

// RateLimitConfig holds rate limiting middleware configuration
type RateLimitConfig struct {
	Limiter cache.RateLimiter
	Limit   int
	Window  time.Duration
	// KeyFunc derives the counter key; defaults to client IP
	KeyFunc func(*gin.Context) string
}

// RateLimit returns a middleware enforcing per-key request limits.
// Counter errors fail open so a Redis outage does not take the API down.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, err := cfg.Limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_RATE_LIMITED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		c.Next()
	}
}

// AuthRateLimit returns a stricter limiter for credential endpoints, keyed
// by client IP plus path so login and magic-link budgets are independent.
func AuthRateLimit(limiter cache.RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   limit,
		Window:  window,
		KeyFunc: func(c *gin.Context) string {
			return "auth:" + c.Request.URL.Path + ":" + c.ClientIP()
		},
	})
}
