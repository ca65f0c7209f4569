package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clientregistry/internal/shared/utils/response"
	"clientregistry/pkg/logger"
)

// Middleware picks the budget from the matched route.
func Middleware(rateLimiter *RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		check(c, rateLimiter, getRateLimitType(c.FullPath()), log)
	}
}

func check(c *gin.Context, rateLimiter *RateLimiter, limitType RateLimitType, log *logger.Logger) {
	clientIP := c.ClientIP()

	result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
	if err != nil {
		// fail open
		log.WithError(err).WarnContext(c.Request.Context(), "rate limit check failed, allowing request",
			"ip", clientIP, "type", string(limitType))
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

	if !result.Allowed {
		log.LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
		response.RespondJSON(c, "error", http.StatusTooManyRequests,
			"Rate limit exceeded", nil, map[string]interface{}{
				"limit":      result.Limit,
				"reset_time": result.ResetTime,
			})
		c.Abort()
		return
	}

	c.Next()
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	// credential-accepting endpoints get the strict budget
	case strings.HasSuffix(path, "/auth/login"),
		strings.HasSuffix(path, "/auth/sign"):
		return RateLimitTypeAuth

	case strings.Contains(path, "/clients"):
		return RateLimitTypeClient

	default:
		return RateLimitTypeDefault
	}
}
