package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/pkg/logger"
)

type Middleware struct {
	limiter RateLimiter
	logger  logger.Logger
}

func NewMiddleware(limiter RateLimiter, log logger.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  log,
	}
}

// LoginRateLimit throttles login form submissions per client IP. GETs pass.
func (m *Middleware) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, err := m.limiter.AllowLoginAttempt(c.Request.Context(), ip)
		if err != nil {
			// Fail open so a redis outage does not lock everyone out.
			m.logger.Error("Failed to check login rate limit", "ip", ip, "error", err)
			c.Next()
			return
		}

		if !allowed {
			c.String(http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}
