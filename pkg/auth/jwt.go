// Package auth issues and validates the HS256 Principal tokens shared
// by the Location Service and the Gateway (spec §4.1, §6). Adapted
// from the teacher's pkg/auth/device_bound_jwt.go signing/parsing
// idiom (jwt.NewWithClaims / SignedString / jwt.ParseWithClaims with
// an explicit HMAC-method guard), dropped down to this spec's simpler
// Principal: no device binding, no session store — just kind + exp.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/biometricfleet/attendance/internal/domain/entities"
)

// DefaultTTL is the token lifetime mandated by spec §9(a): the source
// documented both a 5-minute auto-refresh and a 1-hour TTL; this spec
// fixes TTL at 1 hour for both Frontend and PlaceBackend kinds.
const DefaultTTL = time.Hour

// ClockSkew is the tolerance spec §6 names explicitly.
const ClockSkew = 30 * time.Second

// Claims is the JWT claim set described in spec §6: kind, iat, exp,
// iss, plus the registered claims jwt/v5 expects for its own
// validation (exp/iat it reads back out of NumericDate).
type Claims struct {
	Kind entities.PrincipalKind `json:"kind"`
	jwt.RegisteredClaims
}

// Service issues and validates tokens for one service (an LS or the
// UG), each with its own secret and issuer name.
type Service struct {
	secret []byte
	issuer string
}

// NewService builds a Service. secret must be at least 32 bytes per
// spec §4.1 ("HS256 with a per-service secret of >=32 bytes").
func NewService(secret []byte, issuer string) (*Service, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes, got %d", len(secret))
	}
	return &Service{secret: secret, issuer: issuer}, nil
}

// IssueToken mints a token of the given kind with the given TTL,
// header {alg:HS256,typ:JWT} (jwt/v5's default for this signing
// method), claims {kind, iat, exp, iss} per spec §4.1.
func (s *Service) IssueToken(kind entities.PrincipalKind, ttl time.Duration) (token string, expiresIn int, err error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	exp := now.Add(ttl)

	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, int(ttl.Seconds()), nil
}

// Validate parses and verifies tokenString, enforcing the HMAC method
// (rejecting alg confusion attacks), signature, expiry with the
// configured clock skew, and issuer. It returns a Principal on
// success.
func (s *Service) Validate(tokenString string) (entities.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithLeeway(ClockSkew), jwt.WithIssuer(s.issuer))
	if err != nil {
		return entities.Principal{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return entities.Principal{}, fmt.Errorf("invalid token")
	}

	return entities.Principal{
		Kind:      claims.Kind,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Issuer:    claims.Issuer,
	}, nil
}
