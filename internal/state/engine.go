// Package state holds the stateful drift engine: it fuses a stream of
// embeddings into an EMA state vector, flags drift, and reports health.
//
// An Engine tracks exactly one stream and is not safe for concurrent use;
// callers that share one across goroutines must serialize access.
package state

import (
	"slices"

	"github.com/danielpatrickdp/semdrift/internal/drift"
	"github.com/danielpatrickdp/semdrift/internal/fusion"
	"github.com/danielpatrickdp/semdrift/internal/health"
	"github.com/danielpatrickdp/semdrift/internal/vecmath"
)

// #region engine-struct
// Engine is the semantic state tracker for one embedding stream.
type Engine struct {
	alpha    float32
	detector *drift.Detector
	health   *health.Model

	stateVector   []float32
	lastUpdatedAt float64
	lastDrift     float32
	updateCount   uint32
}

// #endregion engine-struct

// #region constructor
// New creates an engine with the given EMA smoothing factor and drift
// threshold. Neither value is range-checked: alpha is conventionally in (0, 1]
// and driftThreshold in [-1, 1]; config.Validate enforces those bounds for
// hosts built from configuration.
func New(alpha, driftThreshold float32, opts ...Option) *Engine {
	o := options{healthConfig: health.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		alpha:    alpha,
		detector: drift.NewDetector(driftThreshold),
		health:   health.NewModel(o.healthConfig),
	}
}

// #endregion constructor

// #region update
// Update folds embedding into the state at time nowMs.
//
// The first successful call establishes the baseline (and the dimension) by
// fusing against a zero origin and never reports drift. Later calls compare
// against the current state before fusing. On error the engine is unchanged.
func (e *Engine) Update(embedding []float32, nowMs float64) (UpdateResult, error) {
	if len(embedding) == 0 {
		return UpdateResult{}, ErrEmptyEmbedding
	}

	var result UpdateResult
	if e.updateCount == 0 {
		e.stateVector = fusion.EMAFuse(embedding, vecmath.Zeros(len(embedding)), e.alpha)
	} else {
		if len(embedding) != len(e.stateVector) {
			return UpdateResult{}, &DimensionMismatchError{
				Expected: len(e.stateVector),
				Got:      len(embedding),
			}
		}
		d := e.detector.Evaluate(e.stateVector, embedding)
		e.stateVector = fusion.EMAFuse(embedding, e.stateVector, e.alpha)
		e.lastDrift = d.Score
		result.DriftDetected = d.Detected
		result.DriftScore = d.Score
	}

	e.lastUpdatedAt = nowMs
	e.updateCount++

	result.Vector = slices.Clone(embedding)
	return result, nil
}

// #endregion update

// #region snapshot
// Snapshot reports the current state and its health at time nowMs. It never
// fails and does not modify the engine.
func (e *Engine) Snapshot(nowMs float64) Snapshot {
	score := e.health.Score(nowMs, e.lastUpdatedAt, e.lastDrift)
	vec := make([]float32, len(e.stateVector))
	copy(vec, e.stateVector)
	return Snapshot{
		Vector:          vec,
		HealthScore:     score,
		Timestamp:       e.lastUpdatedAt,
		SemanticSummary: health.Summarize(score),
	}
}

// #endregion snapshot

// #region accessors
// Phase reports whether the baseline has been established.
func (e *Engine) Phase() Phase {
	if e.updateCount == 0 {
		return Uninitialized
	}
	return Tracking
}

// Dimension returns the established embedding length, or 0 before the first update.
func (e *Engine) Dimension() int {
	return len(e.stateVector)
}

// UpdateCount returns the number of successful updates.
func (e *Engine) UpdateCount() uint32 {
	return e.updateCount
}

// StateVector returns a copy of the current EMA state.
func (e *Engine) StateVector() []float32 {
	return slices.Clone(e.stateVector)
}

// LastDrift returns the drift score of the most recent non-baseline update.
func (e *Engine) LastDrift() float32 {
	return e.lastDrift
}

// LastUpdatedAt returns the timestamp of the most recent successful update.
func (e *Engine) LastUpdatedAt() float64 {
	return e.lastUpdatedAt
}

// Alpha returns the EMA smoothing factor.
func (e *Engine) Alpha() float32 {
	return e.alpha
}

// DriftThreshold returns the similarity threshold below which drift is flagged.
func (e *Engine) DriftThreshold() float32 {
	return e.detector.Threshold
}

// HealthConfig returns the health model parameters.
func (e *Engine) HealthConfig() health.Config {
	return e.health.Config()
}

// #endregion accessors

// #region normalize
// Normalize returns a unit-length copy of v, or zeros when v has zero
// magnitude. Hosts use it to pre-normalize embeddings before Update.
func Normalize(v []float32) []float32 {
	return vecmath.Normalize(v)
}

// #endregion normalize
