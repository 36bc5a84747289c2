package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowList_EmptyAllowsEverything(t *testing.T) {
	al := NewAllowList(nil)
	assert.True(t, al.Allowed("203.0.113.7"))
}

func TestAllowList_MatchesConfiguredCIDR(t *testing.T) {
	al := NewAllowList([]string{"10.0.0.0/8", "192.168.1.10/32"})
	assert.True(t, al.Allowed("10.1.2.3"))
	assert.True(t, al.Allowed("192.168.1.10"))
	assert.False(t, al.Allowed("203.0.113.7"))
}

func TestAllowList_MalformedCIDRSkippedNotFatal(t *testing.T) {
	al := NewAllowList([]string{"not-a-cidr", "10.0.0.0/8"})
	assert.True(t, al.Allowed("10.5.5.5"))
	assert.False(t, al.Allowed("172.16.0.1"))
}

func TestAllowList_RejectsUnparsableIP(t *testing.T) {
	al := NewAllowList([]string{"10.0.0.0/8"})
	assert.False(t, al.Allowed("not-an-ip"))
}
