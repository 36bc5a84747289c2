package entities

import "time"

// PrincipalKind is the authenticated identity class attached to a
// request after the security middleware runs (spec §3, §4.1).
type PrincipalKind string

const (
	KindFrontend     PrincipalKind = "frontend"
	KindPlaceBackend PrincipalKind = "place_backend"
)

// Principal is present on every authenticated request.
type Principal struct {
	Kind      PrincipalKind `json:"kind"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Issuer    string        `json:"issuer"`
}

// RequirePlaceBackend reports whether this Principal satisfies a
// mutating/machine-to-machine endpoint requirement.
func (p Principal) RequirePlaceBackend() bool {
	return p.Kind == KindPlaceBackend
}
