package state

// #region phase
// Phase reports whether an engine has established its baseline yet.
type Phase int

const (
	// Uninitialized engines have not accepted an embedding yet.
	Uninitialized Phase = iota
	// Tracking engines hold a state vector of fixed dimension.
	Tracking
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Tracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// #endregion phase

// #region update-result
// UpdateResult is returned by Engine.Update.
type UpdateResult struct {
	DriftDetected bool      `json:"driftDetected"`
	DriftScore    float32   `json:"driftScore"` // 1 - cosine similarity, in [0, 2]
	Vector        []float32 `json:"vector"`     // copy of the input embedding
}

// #endregion update-result

// #region snapshot
// Snapshot is a point-in-time view of the engine.
type Snapshot struct {
	Vector          []float32 `json:"vector"` // copy of the EMA state vector
	HealthScore     float32   `json:"healthScore"`
	Timestamp       float64   `json:"timestamp"` // time of the last update
	SemanticSummary string    `json:"semanticSummary"`
}

// #endregion snapshot
