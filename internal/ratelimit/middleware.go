package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.IPLimitPerMin <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// Don't block requests on limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		setHeaders(c, result)

		if !result.Allowed {
			rl.metrics.IncrementRateLimitIPBlock()
			reject(c, result)
			return
		}

		c.Next()
	}
}

// WriteRateLimitMiddleware applies the stricter write budget to mutating methods
func (rl *RateLimiter) WriteRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		if rl.config.WriteLimitPerMin <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		result, err := rl.AllowWrite(c.Request.Context(), ip)
		if err != nil {
			slog.Error("Write rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		if !result.Allowed {
			rl.metrics.IncrementRateLimitIPBlock()
			setHeaders(c, result)
			reject(c, result)
			return
		}

		c.Next()
	}
}

func setHeaders(c *gin.Context, result *Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func reject(c *gin.Context, result *Result) {
	seconds := int(result.RetryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	errors.Respond(c, errors.NewRateLimitError(result.RetryAfter), "")
}
