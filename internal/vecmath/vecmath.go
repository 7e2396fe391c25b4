// Package vecmath provides the stateless float32 vector primitives used by the
// drift engine.
package vecmath

import (
	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"
)

// #region dot
// Dot returns the sum of elementwise products of a and b.
// Only the common prefix is used when the lengths differ; callers are expected
// to pass equal-length vectors.
func Dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	return vek32.Dot(a[:n], b[:n])
}

// #endregion dot

// #region magnitude
// Magnitude returns the L2 norm of v. Vectors whose squared norm overflows or
// underflows float32 are rescaled by their largest element first.
func Magnitude(v []float32) float32 {
	mag := math32.Sqrt(Dot(v, v))
	if mag > 0 && !math32.IsInf(mag, 1) {
		return mag
	}
	m := maxAbs(v)
	if m == 0 || math32.IsInf(m, 1) {
		return mag
	}
	s := scale(v, m)
	return m * math32.Sqrt(Dot(s, s))
}

// #endregion magnitude

// #region cosine
// CosineSimilarity returns the cosine of the angle between a and b, clamped to
// [-1, 1]. It returns exactly 0 when either vector has zero magnitude, and NaN
// only when an element is NaN or infinite.
func CosineSimilarity(a, b []float32) float32 {
	magA := Magnitude(a)
	magB := Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	dot := Dot(a, b)
	denom := magA * magB
	if !isFinite(dot) || !isFinite(denom) || denom == 0 {
		// Cosine is invariant to scaling each side, so bring both into
		// [-1, 1] where the products cannot overflow.
		sa := scale(a, maxAbs(a))
		sb := scale(b, maxAbs(b))
		dot = Dot(sa, sb)
		denom = math32.Sqrt(Dot(sa, sa)) * math32.Sqrt(Dot(sb, sb))
	}
	sim := dot / denom
	if math32.IsNaN(sim) {
		return sim
	}
	return Clamp(sim, -1, 1)
}

// #endregion cosine

// #region normalize
// Normalize returns a new unit-length copy of v. A zero vector normalizes to a
// zero vector of the same length.
func Normalize(v []float32) []float32 {
	mag := Magnitude(v)
	out := make([]float32, len(v))
	if mag == 0 {
		return out
	}
	if math32.IsInf(mag, 1) {
		if m := maxAbs(v); !math32.IsInf(m, 1) {
			v = scale(v, m)
			mag = math32.Sqrt(Dot(v, v))
		}
	}
	for i, x := range v {
		out[i] = x / mag
	}
	return out
}

// #endregion normalize

// #region helpers
// Clamp restricts x to [lo, hi]. NaN clamps to lo.
func Clamp(x, lo, hi float32) float32 {
	if !(x > lo) {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func isFinite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}

// maxAbs returns the largest absolute element of v. NaN elements are skipped.
func maxAbs(v []float32) float32 {
	var m float32
	for _, x := range v {
		if ax := math32.Abs(x); ax > m {
			m = ax
		}
	}
	return m
}

// scale returns a copy of v divided by m.
func scale(v []float32, m float32) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / m
	}
	return out
}

// Zeros returns a zero vector of length n.
func Zeros(n int) []float32 {
	return make([]float32, n)
}

// #endregion helpers
