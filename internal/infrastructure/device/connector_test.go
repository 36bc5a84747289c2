package device

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
)

// fakeDevice runs a tiny TCP server speaking the same length-prefixed
// opcode framing Connector.call writes, so these tests exercise the
// real wire path instead of a mocked transport.
func fakeDevice(t *testing.T, handle func(op opcode) interface{}) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			header := make([]byte, 5)
			if _, err := readFull(reader, header); err != nil {
				return
			}
			op := opcode(header[0])
			length := binary.BigEndian.Uint32(header[1:5])
			payload := make([]byte, length)
			if _, err := readFull(reader, payload); err != nil {
				return
			}

			resp, err := json.Marshal(handle(op))
			if err != nil {
				return
			}
			out := make([]byte, 4+len(resp))
			binary.BigEndian.PutUint32(out[:4], uint32(len(resp)))
			copy(out[4:], resp)
			if _, err := conn.Write(out); err != nil {
				return
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestConnector_GetUsersRoundTrip(t *testing.T) {
	host, port := fakeDevice(t, func(op opcode) interface{} {
		return []entities.User{{UserID: "1", Name: "Alice"}}
	})
	c := NewConnector("d1", host, port, time.Second)

	users, err := c.GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)
}

func TestConnector_GetDeviceInfoRoundTrip(t *testing.T) {
	host, port := fakeDevice(t, func(op opcode) interface{} {
		return map[string]interface{}{"Model": "ZK-1", "FirmwareVer": "1.0", "UserCount": 5, "RecordCount": 10, "Capacity": 100}
	})
	c := NewConnector("d1", host, port, time.Second)

	info, err := c.GetDeviceInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ZK-1", info.Model)
	assert.Equal(t, 5, info.UserCount)
}

func TestConnector_ConnectReusesConnection(t *testing.T) {
	calls := 0
	host, port := fakeDevice(t, func(op opcode) interface{} {
		calls++
		return []entities.AttendanceEvent{}
	})
	c := NewConnector("d1", host, port, time.Second)

	_, err := c.GetAttendance(context.Background())
	require.NoError(t, err)
	_, err = c.GetAttendance(context.Background())
	require.NoError(t, err)

	assert.True(t, c.IdleSince() >= 0)
}

func TestConnector_UnreachableHostErrors(t *testing.T) {
	c := NewConnector("ghost", "127.0.0.1", 1, 50*time.Millisecond)
	_, err := c.GetUsers(context.Background())
	assert.Error(t, err)
}

func TestConnector_DisconnectIsIdempotent(t *testing.T) {
	c := NewConnector("d1", "127.0.0.1", 1, 50*time.Millisecond)
	assert.NoError(t, c.Disconnect(context.Background()))
	assert.NoError(t, c.Disconnect(context.Background()))
}
