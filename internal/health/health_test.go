package health

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreFreshState(t *testing.T) {
	m := NewModel(DefaultConfig())
	assert.Equal(t, float32(1), m.Score(100, 100, 0))
}

func TestScoreAgePenalty(t *testing.T) {
	m := NewModel(DefaultConfig())
	// 1000ms * 0.0001 = 0.1
	assert.InDelta(t, 0.9, m.Score(1000, 0, 0), 1e-5)
}

func TestScoreDriftPenalty(t *testing.T) {
	m := NewModel(DefaultConfig())
	// drift 1.0 * 0.5 = 0.5
	assert.InDelta(t, 0.5, m.Score(0, 0, 1), 1e-6)
}

func TestScoreCombined(t *testing.T) {
	m := NewModel(DefaultConfig())
	assert.InDelta(t, 0.3, m.Score(2000, 0, 1), 1e-5)
}

func TestScoreClampsToZero(t *testing.T) {
	m := NewModel(DefaultConfig())
	assert.Equal(t, float32(0), m.Score(10_000_000, 0, 0))
	assert.Equal(t, float32(0), m.Score(0, 0, 2))
}

func TestScoreNegativeElapsedIsZero(t *testing.T) {
	m := NewModel(DefaultConfig())
	assert.Equal(t, float32(1), m.Score(0, 5000, 0))
}

func TestScoreNaNElapsedIsZero(t *testing.T) {
	m := NewModel(DefaultConfig())
	assert.Equal(t, float32(1), m.Score(math.NaN(), 0, 0))
}

func TestScoreCustomConfig(t *testing.T) {
	m := NewModel(Config{AgeDecayRate: 0, DriftWeight: 0.25})
	assert.InDelta(t, 0.75, m.Score(1e9, 0, 1), 1e-6)
	assert.Equal(t, Config{AgeDecayRate: 0, DriftWeight: 0.25}, m.Config())
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		score float32
		want  string
	}{
		{1, Stable},
		{0.81, Stable},
		{0.8, Drifting},
		{0.6, Drifting},
		{0.5, Volatile},
		{0.2, Volatile},
		{0, Volatile},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Summarize(tt.score), "score %v", tt.score)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, float32(0.0001), c.AgeDecayRate)
	assert.Equal(t, float32(0.5), c.DriftWeight)
}
