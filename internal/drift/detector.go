// Package drift decides whether a new embedding has moved away from the
// tracked semantic state.
package drift

import (
	"fmt"

	"github.com/danielpatrickdp/semdrift/internal/vecmath"
)

// #region detector
// Detector flags drift when the cosine similarity between the state vector and
// a new embedding falls below Threshold.
type Detector struct {
	Threshold float32
}

// NewDetector creates a detector with the given similarity threshold.
func NewDetector(threshold float32) *Detector {
	return &Detector{Threshold: threshold}
}

// Evaluate compares embedding against state. Both must have the same length.
func (d *Detector) Evaluate(state, embedding []float32) Result {
	similarity := vecmath.CosineSimilarity(state, embedding)
	return Result{
		Similarity: similarity,
		Score:      1 - similarity,
		Detected:   similarity < d.Threshold,
	}
}

// #endregion detector

// #region describe
// Describe renders a result for log lines.
func (r Result) Describe() string {
	if r.Detected {
		return fmt.Sprintf("drift detected: similarity=%.4f score=%.4f", r.Similarity, r.Score)
	}
	return fmt.Sprintf("within threshold: similarity=%.4f score=%.4f", r.Similarity, r.Score)
}

// #endregion describe
