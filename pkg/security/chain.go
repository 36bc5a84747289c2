package security

import (
	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/pkg/interfaces"
	"github.com/biometricfleet/attendance/pkg/ratelimit"
)

// ChainConfig bundles everything the shared pipeline (spec §4.1) needs
// to build its middleware stack. Both the Location Service and the
// Gateway construct one of these and mount Chain(cfg) ahead of their
// route groups.
type ChainConfig struct {
	AllowList  *AllowList
	Limiter    ratelimit.Limiter
	Screen     ScreenConfig
	AuthProv   interfaces.AuthProvider
	SkipAuth   bool // token-issuance endpoints authenticate by API key, not Bearer
}

// Chain returns the ordered middleware stack spec §4.1 mandates:
// correlation ID, security headers, IP allow-list, rate limiting,
// content screening, then authentication (fail-closed — the first
// stage to reject wins and nothing downstream runs).
func Chain(cfg ChainConfig) []gin.HandlerFunc {
	stack := []gin.HandlerFunc{
		CorrelationID(),
		Headers(),
		Middleware(cfg.AllowList),
		ratelimit.Middleware(cfg.Limiter),
		Screen(cfg.Screen),
	}
	if !cfg.SkipAuth {
		stack = append(stack, Auth(cfg.AuthProv))
	}
	return stack
}
