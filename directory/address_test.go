package directory

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPv4String(t *testing.T) {
	tests := []struct {
		name string
		in   uint32
		want string
	}{
		{name: "published liteserver", in: 1592601963, want: "94.237.45.107"},
		{name: "zero", in: 0, want: "0.0.0.0"},
		{name: "loopback", in: 0x7f000001, want: "127.0.0.1"},
		{name: "all ones", in: 0xffffffff, want: "255.255.255.255"},
		{name: "above signed range", in: 3232235521, want: "192.168.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IPv4String(tt.in))
		})
	}
}

func TestFromSigned(t *testing.T) {
	assert.Equal(t, "192.168.0.1", IPv4String(FromSigned(-1062731775)))
	assert.Equal(t, "255.255.255.255", IPv4String(FromSigned(-1)))
	assert.Equal(t, "94.237.45.107", IPv4String(FromSigned(1592601963)))
}

func TestIPv4RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7fffffff, 0x80000000, 0xffffffff, 1592601963}
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		values = append(values, r.Uint32())
	}

	for _, v := range values {
		got, err := ParseIPv4(IPv4String(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParseIPv4Rejects(t *testing.T) {
	for _, in := range []string{"", "localhost", "1.2.3", "::1", "256.1.1.1"} {
		_, err := ParseIPv4(in)
		assert.Error(t, err, in)
	}
}
