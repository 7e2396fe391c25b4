package journal

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a stream or event does not exist.
var ErrNotFound = errors.New("journal record not found")

// #region stream
// Stream describes one tracked embedding stream and the engine parameters it
// was created with.
type Stream struct {
	StreamID       string
	Alpha          float32
	DriftThreshold float32
	AgeDecayRate   float32
	DriftWeight    float32
	CreatedAt      time.Time
}

// #endregion stream

// #region update-event
// UpdateEvent records one successful engine update. Seq and ParentID are
// assigned by RecordUpdate when left empty.
type UpdateEvent struct {
	EventID       string
	StreamID      string
	ParentID      string
	Seq           int64
	NowMs         float64
	Dimension     int
	DriftDetected bool
	DriftScore    float32
	Embedding     []float32
	StateVector   []float32
	CreatedAt     time.Time
}

// #endregion update-event

// #region snapshot-record
// SnapshotRecord records one snapshot taken by a host.
type SnapshotRecord struct {
	ID              int64
	StreamID        string
	NowMs           float64
	HealthScore     float32
	SemanticSummary string
	LastUpdatedAt   float64
	CreatedAt       time.Time
}

// #endregion snapshot-record
