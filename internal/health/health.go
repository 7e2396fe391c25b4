// Package health scores how trustworthy the tracked semantic state is, based on
// how stale it is and how much the stream drifted on its last update.
package health

import (
	"github.com/danielpatrickdp/semdrift/internal/vecmath"
)

// #region model
// Model computes health scores from elapsed time and drift.
type Model struct {
	config Config
}

// NewModel creates a health model with the given configuration.
func NewModel(config Config) *Model {
	return &Model{config: config}
}

// Config returns the model's decay parameters.
func (m *Model) Config() Config {
	return m.config
}

// Score returns a health value in [0, 1]. Negative (or NaN) elapsed time is
// treated as zero.
func (m *Model) Score(nowMs, lastUpdatedAtMs float64, lastDrift float32) float32 {
	elapsed := nowMs - lastUpdatedAtMs
	if !(elapsed > 0) {
		elapsed = 0
	}
	agePenalty := float32(elapsed) * m.config.AgeDecayRate
	driftPenalty := lastDrift * m.config.DriftWeight
	return vecmath.Clamp(1-agePenalty-driftPenalty, 0, 1)
}

// #endregion model

// #region summarize
// Summarize maps a health score to one of Stable, Drifting or Volatile.
func Summarize(score float32) string {
	switch {
	case score > stableAbove:
		return Stable
	case score > driftingAbove:
		return Drifting
	default:
		return Volatile
	}
}

// #endregion summarize
