package drift

// #region result
// Result is the outcome of comparing an embedding against the tracked state.
type Result struct {
	Similarity float32 // cosine similarity in [-1, 1]
	Score      float32 // 1 - Similarity, in [0, 2]
	Detected   bool    // Similarity < Threshold
}

// #endregion result
