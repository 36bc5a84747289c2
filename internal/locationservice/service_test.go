package locationservice

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/internal/domain/policy"
	"github.com/biometricfleet/attendance/internal/infrastructure/device"
	"github.com/biometricfleet/attendance/pkg/logger"
)

// startFakeDevice runs a single-shot TCP server that answers GetUsers
// (op 1) and GetAttendance (op 2) with the given fixtures, or closes
// its listener before returning when unreachable is true, so a dial to
// it is refused (simulating a device that is unreachable).
func startFakeDevice(t *testing.T, users []entities.User, events []entities.AttendanceEvent, unreachable bool) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	if unreachable {
		ln.Close()
		addr := ln.Addr().(*net.TCPAddr)
		return "127.0.0.1", addr.Port
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			header := make([]byte, 5)
			if _, err := readFullLocal(reader, header); err != nil {
				return
			}
			op := header[0]
			length := binary.BigEndian.Uint32(header[1:5])
			payload := make([]byte, length)
			if _, err := readFullLocal(reader, payload); err != nil {
				return
			}

			var resp interface{}
			switch op {
			case 1:
				resp = users
			case 2:
				resp = events
			default:
				resp = nil
			}
			body, _ := json.Marshal(resp)
			out := make([]byte, 4+len(body))
			binary.BigEndian.PutUint32(out[:4], uint32(len(body)))
			copy(out[4:], body)
			conn.Write(out)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func readFullLocal(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func newTestPool(t *testing.T, entries map[string]struct {
	Host string
	Port int
}) *device.Pool {
	t.Helper()
	log := logger.New("error", "production")
	return device.NewPool(entries, 200*time.Millisecond, time.Minute, log)
}

func TestUsersAcrossDevices_MergesByUserIDAndTracksDeviceNames(t *testing.T) {
	hostA, portA := startFakeDevice(t, []entities.User{{UserID: "u1", Name: "Alice"}}, nil, false)
	hostB, portB := startFakeDevice(t, []entities.User{{UserID: "u1", Name: "Alice"}, {UserID: "u2", Name: "Bob"}}, nil, false)

	pool := newTestPool(t, map[string]struct {
		Host string
		Port int
	}{
		"front-door": {hostA, portA},
		"back-door":  {hostB, portB},
	})

	svc := New(pool, policy.DefaultWorkPolicy(), logger.New("error", "production"))
	users, failures := svc.UsersAcrossDevices(context.Background())

	assert.Empty(t, failures)
	require.Len(t, users, 2)
	var alice entities.User
	for _, u := range users {
		if u.UserID == "u1" {
			alice = u
		}
	}
	assert.ElementsMatch(t, []string{"front-door", "back-door"}, alice.DeviceNames)
}

// A single unreachable device must not fail the whole union request:
// its users are dropped, its name appears as a Failure, and the other
// device's users still come back.
func TestUsersAcrossDevices_PartialOnOneDeviceDown(t *testing.T) {
	hostA, portA := startFakeDevice(t, []entities.User{{UserID: "u1", Name: "Alice"}}, nil, false)
	hostB, portB := startFakeDevice(t, nil, nil, true)

	pool := newTestPool(t, map[string]struct {
		Host string
		Port int
	}{
		"good": {hostA, portA},
		"bad":  {hostB, portB},
	})

	svc := New(pool, policy.DefaultWorkPolicy(), logger.New("error", "production"))
	users, failures := svc.UsersAcrossDevices(context.Background())

	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].UserID)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad", failures[0].LocationID)
}

func TestAttendanceAcrossDevices_SortedByNaturalKey(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hostA, portA := startFakeDevice(t,
		[]entities.User{{UserID: "u2", Name: "Bob"}},
		[]entities.AttendanceEvent{{UserID: "u2", Timestamp: day.Add(8 * time.Hour), PunchType: entities.PunchIn}},
		false)
	hostB, portB := startFakeDevice(t,
		[]entities.User{{UserID: "u1", Name: "Alice"}},
		[]entities.AttendanceEvent{{UserID: "u1", Timestamp: day.Add(8 * time.Hour), PunchType: entities.PunchIn}},
		false)

	pool := newTestPool(t, map[string]struct {
		Host string
		Port int
	}{
		"dev-b": {hostA, portA},
		"dev-a": {hostB, portB},
	})

	svc := New(pool, policy.DefaultWorkPolicy(), logger.New("error", "production"))
	records, failures := svc.AttendanceAcrossDevices(context.Background(), day, day, nil)

	assert.Empty(t, failures)
	require.Len(t, records, 2)
	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, "u2", records[1].UserID)
}

func TestGetUsers_UnknownDeviceReturnsNotFound(t *testing.T) {
	pool := newTestPool(t, map[string]struct {
		Host string
		Port int
	}{})
	svc := New(pool, policy.DefaultWorkPolicy(), logger.New("error", "production"))

	_, err := svc.GetUsers(context.Background(), "missing")
	assert.Error(t, err)
}
