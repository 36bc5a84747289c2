package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biometricfleet/attendance/internal/domain/entities"
)

func secret(b byte) []byte {
	s := make([]byte, 32)
	for i := range s {
		s[i] = b
	}
	return s
}

func TestNewService_RejectsShortSecret(t *testing.T) {
	_, err := NewService([]byte("too-short"), "issuer")
	assert.Error(t, err)
}

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	svc, err := NewService(secret('a'), "location-svc")
	require.NoError(t, err)

	token, expiresIn, err := svc.IssueToken(entities.KindPlaceBackend, DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, int(DefaultTTL.Seconds()), expiresIn)

	principal, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, entities.KindPlaceBackend, principal.Kind)
	assert.Equal(t, "location-svc", principal.Issuer)
}

func TestIssueToken_ZeroTTLFallsBackToDefault(t *testing.T) {
	svc, err := NewService(secret('b'), "issuer")
	require.NoError(t, err)
	_, expiresIn, err := svc.IssueToken(entities.KindFrontend, 0)
	require.NoError(t, err)
	assert.Equal(t, int(DefaultTTL.Seconds()), expiresIn)
}

func TestValidate_RejectsWrongIssuer(t *testing.T) {
	issuerA, err := NewService(secret('c'), "issuer-a")
	require.NoError(t, err)
	issuerB, err := NewService(secret('c'), "issuer-b")
	require.NoError(t, err)

	token, _, err := issuerA.IssueToken(entities.KindFrontend, DefaultTTL)
	require.NoError(t, err)

	_, err = issuerB.Validate(token)
	assert.Error(t, err)
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	svcA, err := NewService(secret('d'), "issuer")
	require.NoError(t, err)
	svcB, err := NewService(secret('e'), "issuer")
	require.NoError(t, err)

	token, _, err := svcA.IssueToken(entities.KindFrontend, DefaultTTL)
	require.NoError(t, err)

	_, err = svcB.Validate(token)
	assert.Error(t, err)
}

func TestValidate_ExpiredTokenRejectedPastSkew(t *testing.T) {
	svc, err := NewService(secret('f'), "issuer")
	require.NoError(t, err)

	// A token whose TTL has already elapsed well beyond ClockSkew must
	// fail validation.
	token, _, err := svc.IssueToken(entities.KindFrontend, -2*ClockSkew)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestValidate_WithinClockSkewStillAccepted(t *testing.T) {
	svc, err := NewService(secret('g'), "issuer")
	require.NoError(t, err)

	// TTL expired a few seconds ago, within the configured leeway.
	token, _, err := svc.IssueToken(entities.KindFrontend, -1*time.Second)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.NoError(t, err)
}

func TestValidate_RejectsGarbageToken(t *testing.T) {
	svc, err := NewService(secret('h'), "issuer")
	require.NoError(t, err)
	_, err = svc.Validate("not-a-jwt")
	assert.Error(t, err)
}
