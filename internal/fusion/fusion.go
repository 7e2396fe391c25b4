// Package fusion implements the exponential-moving-average rule that folds new
// embeddings into the tracked state vector.
package fusion

// #region ema
// EMAFuse returns alpha*current + (1-alpha)*previous, elementwise, as a new
// slice. current and previous must have equal length; the result is truncated
// to the shorter of the two otherwise.
//
// alpha = 1 replaces the state with current; alpha = 0 freezes it at previous.
func EMAFuse(current, previous []float32, alpha float32) []float32 {
	n := min(len(current), len(previous))
	out := make([]float32, n)
	keep := 1 - alpha
	for i := 0; i < n; i++ {
		out[i] = alpha*current[i] + keep*previous[i]
	}
	return out
}

// #endregion ema
