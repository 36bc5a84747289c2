// Package security implements the shared middleware pipeline spec
// §4.1 mandates ahead of authentication: IP allow-listing, content
// screening, response security headers, and request correlation IDs.
// Grounded on the teacher's internal/api/middleware/webhook_security.go
// CIDR-matching idiom, generalized from a single webhook source list
// to a per-service configurable allow-list.
package security

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/pkg/errors"
)

// AllowList matches a client IP against a set of CIDR blocks. An empty
// AllowList allows everything, matching spec §4.4's default of "no
// restriction configured".
type AllowList struct {
	nets []*net.IPNet
}

// NewAllowList parses cidrs (e.g. "10.0.0.0/8", "192.168.1.10/32")
// into an AllowList. A malformed entry is skipped rather than failing
// startup; the config loader does not validate CIDR syntax either.
func NewAllowList(cidrs []string) *AllowList {
	al := &AllowList{}
	for _, c := range cidrs {
		_, ipnet, err := net.ParseCIDR(c)
		if err != nil {
			continue
		}
		al.nets = append(al.nets, ipnet)
	}
	return al
}

// Allowed reports whether ip is permitted. An empty configured list
// allows every address.
func (al *AllowList) Allowed(ip string) bool {
	if len(al.nets) == 0 {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range al.nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// Middleware rejects requests from IPs outside al with 403 FORBIDDEN,
// the first stage of spec §4.1's pipeline ("fail-closed, first
// failure wins").
func Middleware(al *AllowList) gin.HandlerFunc {
	return func(c *gin.Context) {
		if al.Allowed(c.ClientIP()) {
			c.Next()
			return
		}
		apiErr := errors.NewForbidden("source address not permitted")
		c.AbortWithStatusJSON(http.StatusForbidden, entities.NewError(
			c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
	}
}
