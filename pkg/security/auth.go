package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
	"github.com/biometricfleet/attendance/pkg/interfaces"
)

// PrincipalKey is the gin context key handlers read the validated
// Principal from after Auth succeeds.
const PrincipalKey = "principal"

// Auth validates the Bearer token against provider and stores the
// resulting Principal in the context, the fourth and final stage of
// spec §4.1's pipeline before the handler runs.
func Auth(provider interfaces.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			apiErr := apierrors.NewAuthRequired()
			c.AbortWithStatusJSON(apiErr.StatusCode, entities.NewError(
				c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
			return
		}

		principal, err := provider.Validate(strings.TrimPrefix(header, prefix))
		if err != nil {
			apiErr := apierrors.NewAuthInvalid()
			c.AbortWithStatusJSON(apiErr.StatusCode, entities.NewError(
				c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// RequireKind aborts with 403 FORBIDDEN unless the request's Principal
// is of one of the allowed kinds, used by the Gateway to reserve its
// cross-location and proxy endpoints for Frontend-kind tokens (spec
// §4.1, §9a).
func RequireKind(allowed ...entities.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := c.MustGet(PrincipalKey).(entities.Principal)
		if !ok {
			apiErr := apierrors.NewAuthRequired()
			c.AbortWithStatusJSON(apiErr.StatusCode, entities.NewError(
				c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
			return
		}
		for _, kind := range allowed {
			if principal.Kind == kind {
				c.Next()
				return
			}
		}
		apiErr := apierrors.NewForbidden("token kind not permitted for this endpoint")
		c.AbortWithStatusJSON(http.StatusForbidden, entities.NewError(
			c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
	}
}

// Principal fetches the validated Principal stored by Auth.
func Principal(c *gin.Context) entities.Principal {
	return c.MustGet(PrincipalKey).(entities.Principal)
}
