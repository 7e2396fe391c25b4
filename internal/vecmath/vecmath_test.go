package vecmath

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
		{"Nil", nil, nil, 0},
		{"TruncatesToShorter", []float32{1, 2, 3}, []float32{4, 5}, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dot(tt.a, tt.b), eps)
		})
	}
}

func TestMagnitude(t *testing.T) {
	assert.InDelta(t, 5.0, Magnitude([]float32{3, 4}), eps)
	assert.Equal(t, float32(0), Magnitude([]float32{0, 0, 0}))
	assert.Equal(t, float32(0), Magnitude(nil))
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		v := []float32{1, 2, 3}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), eps)
	})
	t.Run("orthogonal", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), eps)
	})
	t.Run("opposite", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), eps)
	})
	t.Run("zero vector is exactly zero", func(t *testing.T) {
		assert.Equal(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
		assert.Equal(t, float32(0), CosineSimilarity([]float32{1, 2}, []float32{0, 0}))
		assert.Equal(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{0, 0}))
	})
	t.Run("scale invariant", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{10, 20}), eps)
	})
}

func TestCosineSimilarityExtremeMagnitudes(t *testing.T) {
	big := []float32{1e20, 1e20}
	assert.InDelta(t, 1.0, CosineSimilarity(big, big), eps)
	assert.InDelta(t, -1.0, CosineSimilarity(big, []float32{-1e20, -1e20}), eps)
	assert.InDelta(t, 0.0, CosineSimilarity(big, []float32{1e20, -1e20}), eps)
	assert.InDelta(t, 1.0, CosineSimilarity(big, []float32{1, 1}), eps)

	tiny := []float32{1e-30, 1e-30}
	assert.InDelta(t, 1.0, CosineSimilarity(tiny, tiny), eps)
	assert.InDelta(t, 1.0, CosineSimilarity(tiny, big), eps)
}

func TestCosineSimilarityNaNPropagates(t *testing.T) {
	var zero float32
	sim := CosineSimilarity([]float32{zero / zero, 1}, []float32{1, 1})
	assert.True(t, sim != sim, "expected NaN, got %v", sim)
}

func TestMagnitudeExtreme(t *testing.T) {
	assert.InEpsilon(t, 1.4142135e20, Magnitude([]float32{1e20, 1e20}), 1e-5)
	assert.InEpsilon(t, 1.4142135e-30, Magnitude([]float32{1e-30, 1e-30}), 1e-5)
}

func TestNormalizeExtreme(t *testing.T) {
	for _, v := range [][]float32{{3e38, 4e38}, {3e-30, 4e-30}} {
		got := Normalize(v)
		require.Len(t, got, 2)
		assert.InDelta(t, 0.6, got[0], eps)
		assert.InDelta(t, 0.8, got[1], eps)
	}
}

func TestCosineSimilarityProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		dim := 1 + rng.Intn(64)
		a := randomVector(rng, dim)
		b := randomVector(rng, dim)

		ab := CosineSimilarity(a, b)
		ba := CosineSimilarity(b, a)
		assert.InDelta(t, ab, ba, eps, "symmetry")
		assert.GreaterOrEqual(t, ab, float32(-1))
		assert.LessOrEqual(t, ab, float32(1))
		assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-4, "self similarity")
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{3, 4})
	require.Len(t, got, 2)
	assert.InDelta(t, 0.6, got[0], eps)
	assert.InDelta(t, 0.8, got[1], eps)
}

func TestNormalizeZeroVector(t *testing.T) {
	got := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, got)
}

func TestNormalizeEmpty(t *testing.T) {
	got := Normalize(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeUnitMagnitude(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		v := randomVector(rng, 1+rng.Intn(128))
		if Magnitude(v) == 0 {
			continue
		}
		assert.InDelta(t, 1.0, Magnitude(Normalize(v)), 1e-4)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}
	_ = Normalize(v)
	assert.Equal(t, []float32{3, 4}, v)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(1.0000001, -1, 1))
	assert.Equal(t, float32(-1), Clamp(-1.5, -1, 1))
	assert.Equal(t, float32(0.25), Clamp(0.25, 0, 1))
	var zero float32
	assert.Equal(t, float32(0), Clamp(zero/zero, 0, 1))
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}
