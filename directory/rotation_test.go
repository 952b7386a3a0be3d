package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory(n int) *Directory {
	servers := make([]ServerDescriptor, n)
	for i := range servers {
		servers[i] = ServerDescriptor{
			Address:   0x7f000001,
			Port:      uint16(10000 + i),
			PublicKey: make([]byte, 32),
			KeyType:   KeyTypeEd25519,
		}
	}
	return New(servers...)
}

func TestNewCursorEmptyDirectory(t *testing.T) {
	_, err := NewCursor(New())
	assert.ErrorIs(t, err, ErrEmptyDirectory)

	_, err = NewCursor(nil)
	assert.ErrorIs(t, err, ErrEmptyDirectory)
}

func TestCursorAdvanceWraps(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		c, err := NewCursor(testDirectory(n))
		require.NoError(t, err)

		start := c.Current()
		for i := 1; i <= n; i++ {
			next := c.Advance()
			assert.Equal(t, i%n, c.Position())
			assert.Equal(t, next, c.Current())
		}
		assert.Equal(t, start, c.Current(), "n=%d", n)
		assert.Equal(t, n, c.Rotations())
	}
}

func TestCursorAdvanceNeverStops(t *testing.T) {
	c, err := NewCursor(testDirectory(3))
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		c.Advance()
	}
	assert.Equal(t, 10000%3, c.Position())
	assert.Equal(t, uint16(10000+10000%3), c.Current().Port)
}

func TestCursorIgnoresLaterDirectoryCopies(t *testing.T) {
	servers := testDirectory(2).Servers()
	dir := New(servers...)
	servers[0].Port = 1

	c, err := NewCursor(dir)
	require.NoError(t, err)
	assert.Equal(t, uint16(10000), c.Current().Port)
	assert.Equal(t, 2, c.Len())
}
