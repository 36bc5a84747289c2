// Package interfaces defines the explicit seams named in spec §9's
// design note on replacing dynamic dispatch: AuthProvider, Store,
// DeviceConnector, HttpClient. Every cross-component dependency in
// this repo flows through one of these so tests can inject fakes,
// mirroring the teacher's pkg/interfaces framing ("core interfaces to
// break circular dependencies"), re-scoped from the teacher's
// repository/service interfaces to this domain's four seams.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/biometricfleet/attendance/internal/domain/entities"
)

// AuthProvider issues and validates Principal tokens (spec §4.1).
type AuthProvider interface {
	IssueToken(kind entities.PrincipalKind, ttl time.Duration) (token string, expiresIn int, err error)
	Validate(token string) (entities.Principal, error)
}

// Store is the configuration seam: a read-only snapshot accessor plus
// an explicit reload trigger (spec §4.4, §5 "configuration snapshot
// swapped by pointer assignment").
type Store[T any] interface {
	Snapshot() T
	Reload(ctx context.Context) error
}

// DeviceConnector is the fingerprint-device wire-protocol seam spec
// §1 treats as an external collaborator "assumed available as a
// library offering connect/disconnect/get_users/get_attendance/
// get_device_info". This repo ships the seam and one concrete TCP
// implementation of it (internal/infrastructure/device), not a
// specific vendor protocol.
type DeviceConnector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	GetUsers(ctx context.Context) ([]entities.User, error)
	GetAttendance(ctx context.Context) ([]entities.AttendanceEvent, error)
	GetDeviceInfo(ctx context.Context) (DeviceInfo, error)
}

// DeviceInfo is what GetDeviceInfo returns about the physical unit.
type DeviceInfo struct {
	Model       string
	FirmwareVer string
	UserCount   int
	RecordCount int
	Capacity    int
}

// HttpClient is the outbound-HTTP seam the Gateway's fan-out uses to
// call Location Services, so tests can inject a fake transport
// without a real listener.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}
