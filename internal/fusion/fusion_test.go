package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMAFuse(t *testing.T) {
	got := EMAFuse([]float32{1, 0}, []float32{0, 1}, 0.5)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.5, got[0], 1e-6)
	assert.InDelta(t, 0.5, got[1], 1e-6)
}

func TestEMAFuseAlphaOneReplaces(t *testing.T) {
	current := []float32{3, 1, 4}
	previous := []float32{-2, 7, 0.125}
	assert.Equal(t, current, EMAFuse(current, previous, 1))
}

func TestEMAFuseAlphaZeroFreezes(t *testing.T) {
	current := []float32{3, 1, 4}
	previous := []float32{-2, 7, 0.125}
	assert.Equal(t, previous, EMAFuse(current, previous, 0))
}

func TestEMAFuseAgainstZeroOrigin(t *testing.T) {
	got := EMAFuse([]float32{1, 0}, make([]float32, 2), 0.5)
	assert.Equal(t, []float32{0.5, 0}, got)
}

func TestEMAFuseDoesNotAlias(t *testing.T) {
	current := []float32{1, 2}
	previous := []float32{3, 4}
	got := EMAFuse(current, previous, 1)
	got[0] = 99
	assert.Equal(t, float32(1), current[0])
	assert.Equal(t, float32(3), previous[0])
}

func TestEMAFuseGeometricDecay(t *testing.T) {
	// Repeatedly fusing zeros decays the state by (1-alpha) per step.
	state := []float32{1}
	for i := 0; i < 3; i++ {
		state = EMAFuse([]float32{0}, state, 0.5)
	}
	assert.InDelta(t, 0.125, state[0], 1e-7)
}
