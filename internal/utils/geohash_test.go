package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighbours(t *testing.T) {
	t.Run("cells around the origin", func(t *testing.T) {
		neighbours := Neighbours("7zzzz")
		require.Len(t, neighbours, 8)
		// North, north-east and east of the cell just south-west of (0, 0).
		assert.Equal(t, "ebpbp", neighbours[0])
		assert.Equal(t, "s0000", neighbours[1])
		assert.Equal(t, "kpbpb", neighbours[2])
	})

	t.Run("distinct cells of the same precision", func(t *testing.T) {
		neighbours := Neighbours("u09tunq")
		require.Len(t, neighbours, 8)
		seen := make(map[string]bool)
		for _, n := range neighbours {
			assert.Len(t, n, 7)
			assert.NotEqual(t, "u09tunq", n)
			assert.False(t, seen[n], n)
			seen[n] = true
		}
	})

	t.Run("empty hash", func(t *testing.T) {
		assert.Nil(t, Neighbours(""))
	})
}

func TestCellCenter(t *testing.T) {
	lat, lng := CellCenter("s0000")
	assert.Greater(t, lat, 0.0)
	assert.Less(t, lat, 0.05)
	assert.Greater(t, lng, 0.0)
	assert.Less(t, lng, 0.05)
}
