package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smartqueue/backend/internal/infrastructure/cache"
	"github.com/smartqueue/backend/internal/interfaces/http/dto"
)

// RateLimit limits requests per client IP, or per user once authenticated
func RateLimit(limiter cache.RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		if actor, ok := GetActor(c); ok {
			return "user:" + actor.UserID.String()
		}
		return "ip:" + c.ClientIP()
	})
}

// RateLimitByKey limits requests per key. A failing limiter store lets the request through.
func RateLimitByKey(limiter cache.RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		quota, err := limiter.Take(c.Request.Context(), keyFunc(c))
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
		if !quota.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(quota.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests. Please try again later.", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}
