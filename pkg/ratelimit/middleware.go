package ratelimit

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
	"github.com/biometricfleet/attendance/pkg/metrics"
)

// Middleware returns gin middleware enforcing lim, keyed by client IP,
// matching the teacher's DistributedRateLimiter.Middleware() response
// shape: 429 with Retry-After/X-RateLimit-* headers and a RATE_LIMITED
// envelope body.
func Middleware(lim Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		result, err := lim.Allow(c.Request.Context(), key)
		if err != nil {
			apiErr := apierrors.Wrap(apierrors.Internal, "rate limit check failed", err)
			c.AbortWithStatusJSON(apiErr.StatusCode, entities.NewError(c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
			return
		}

		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		}

		if !result.Allowed {
			metrics.RateLimitHitsTotal.WithLabelValues("ip").Inc()
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			apiErr := apierrors.NewRateLimited(int(result.RetryAfter.Seconds()))
			c.AbortWithStatusJSON(apiErr.StatusCode, entities.NewError(c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
			return
		}

		c.Next()
	}
}

// RequestIDKey is the gin context key the correlation-ID middleware
// (pkg/security) stores the request ID under.
const RequestIDKey = "request_id"
