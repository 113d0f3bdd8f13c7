package iputil

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid IPv4", "192.168.1.10", false},
		{"zero address", "0.0.0.0", false},
		{"broadcast", "255.255.255.255", false},
		{"IPv6 rejected", "2001:db8::1", true},
		{"garbage", "not-an-ip", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddr(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, addr.String())
		})
	}
}

func TestAddrUint32RoundTrip(t *testing.T) {
	tests := []struct {
		addr string
		want uint32
	}{
		{"0.0.0.0", 0},
		{"0.0.0.1", 1},
		{"10.0.0.1", 0x0a000001},
		{"192.168.1.1", 0xc0a80101},
		{"255.255.255.255", 0xffffffff},
	}

	for _, tt := range tests {
		addr := netip.MustParseAddr(tt.addr)
		n := AddrToUint32(addr)
		assert.Equal(t, tt.want, n)
		assert.Equal(t, addr, Uint32ToAddr(n))
	}
}

func TestSet_AddContains(t *testing.T) {
	s := NewSet(netip.MustParseAddr("10.0.0.1"))
	s.Add(netip.MustParseAddr("10.0.0.2"))
	s.Add(netip.MustParseAddr("10.0.0.2")) // duplicate

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(netip.MustParseAddr("10.0.0.1")))
	assert.False(t, s.Contains(netip.MustParseAddr("10.0.0.3")))
}

func TestSet_AddPrefix(t *testing.T) {
	s := NewSet()
	s.AddPrefix(netip.MustParsePrefix("192.168.0.0/30"))

	assert.Equal(t, 4, s.Len())
	assert.True(t, s.Contains(netip.MustParseAddr("192.168.0.0")))
	assert.True(t, s.Contains(netip.MustParseAddr("192.168.0.3")))
	assert.False(t, s.Contains(netip.MustParseAddr("192.168.0.4")))
}

func TestSet_Difference(t *testing.T) {
	scope := NewSet()
	scope.AddPrefix(netip.MustParsePrefix("10.0.0.0/30"))

	seen := NewSet(
		netip.MustParseAddr("10.0.0.0"),
		netip.MustParseAddr("10.0.0.2"),
	)

	missing := scope.Difference(seen)
	assert.Equal(t, 2, missing.Len())
	assert.True(t, missing.Contains(netip.MustParseAddr("10.0.0.1")))
	assert.True(t, missing.Contains(netip.MustParseAddr("10.0.0.3")))
}

func TestSet_OrderedViews(t *testing.T) {
	s := NewSet(
		netip.MustParseAddr("10.0.0.9"),
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("10.0.0.5"),
	)

	addrs := s.Addrs()
	require.Len(t, addrs, 3)
	assert.Equal(t, "10.0.0.1", addrs[0].String())
	assert.Equal(t, "10.0.0.5", addrs[1].String())
	assert.Equal(t, "10.0.0.9", addrs[2].String())

	ints := s.Uint32s()
	require.Len(t, ints, 3)
	assert.True(t, ints[0] < ints[1] && ints[1] < ints[2])
}
