// Package middleware holds the small gin middlewares that don't belong
// to the shared security chain (pkg/security): request deadlines.
// TimeoutMiddleware is adapted from the teacher's
// internal/api/middleware/timeout.go goroutine+select pattern. The
// Gateway fan-out engine sets its per-Location deadlines with
// context.WithTimeout and uses nothing from this package.
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
)

// DefaultLocationCallTimeout is the request deadline the Location
// Service router passes to TimeoutMiddleware.
const DefaultLocationCallTimeout = 10 * time.Second

// TimeoutMiddleware bounds request handling to timeout, responding
// TIMEOUT (504) if the handler chain hasn't finished by then. The
// handler goroutine is not itself killed — only the response race is
// lost and the context is cancelled, so well-behaved handlers checking
// ctx.Done() stop promptly.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		go func() {
			c.Next()
			close(done)
		}()

		select {
		case <-done:
			return
		case <-ctx.Done():
			apiErr := apierrors.NewTimeout("request processing timeout")
			c.AbortWithStatusJSON(apiErr.StatusCode, entities.NewError(
				c.GetString("request_id"), string(apiErr.Code), apiErr.Message))
		}
	}
}

// WithTimeoutIfNeeded adds timeout to ctx unless ctx already carries a
// shorter deadline, so an existing tighter deadline is never
// lengthened by an outer default.
func WithTimeoutIfNeeded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < timeout {
			return ctx, func() {}
		}
	}
	return context.WithTimeout(ctx, timeout)
}
