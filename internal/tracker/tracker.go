// Package tracker is the host-side wrapper around a single drift engine. It
// serializes access, reacts to drift with a callback, and feeds metrics and
// the journal.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/danielpatrickdp/semdrift/internal/health"
	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/danielpatrickdp/semdrift/internal/metrics"
	"github.com/danielpatrickdp/semdrift/internal/state"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// #region types
// Recorder persists update and snapshot records. *journal.Store implements it.
type Recorder interface {
	RecordUpdate(ctx context.Context, ev journal.UpdateEvent) (journal.UpdateEvent, error)
	RecordSnapshot(ctx context.Context, rec journal.SnapshotRecord) (journal.SnapshotRecord, error)
}

// DriftAlert is passed to the drift callback.
type DriftAlert struct {
	StreamID    string
	NowMs       float64
	UpdateCount uint32
	Result      state.UpdateResult
}

// Config holds the engine parameters of a tracker.
type Config struct {
	Alpha          float32
	DriftThreshold float32
	Health         health.Config
}

// Info summarizes the tracked stream.
type Info struct {
	StreamID    string  `json:"streamId"`
	Phase       string  `json:"phase"`
	Dimension   int     `json:"dimension"`
	UpdateCount uint32  `json:"updateCount"`
	Alpha       float32 `json:"alpha"`
	Threshold   float32 `json:"driftThreshold"`
}

// #endregion types

// #region tracker
// Tracker owns one engine and is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	engine   *state.Engine
	streamID string

	recorder Recorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
	onDrift  func(DriftAlert)
	clock    func() float64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRecorder journals every update and snapshot.
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithStreamID sets the stream identifier. Defaults to a new UUID.
func WithStreamID(id string) Option {
	return func(t *Tracker) { t.streamID = id }
}

// WithClock overrides the millisecond clock used by Now.
func WithClock(clock func() float64) Option {
	return func(t *Tracker) { t.clock = clock }
}

// OnDrift registers a callback fired after every update that flags drift.
// It runs outside the tracker lock, so it may call back into the tracker.
func OnDrift(fn func(DriftAlert)) Option {
	return func(t *Tracker) { t.onDrift = fn }
}

// New creates a tracker around a fresh engine.
func New(cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		engine: state.New(cfg.Alpha, cfg.DriftThreshold, state.WithHealthConfig(cfg.Health)),
		logger: zap.NewNop(),
		clock:  wallClockMs,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.streamID == "" {
		t.streamID = uuid.New().String()
	}
	t.logger = t.logger.With(zap.String("stream_id", t.streamID))
	return t
}

func wallClockMs() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

// #endregion tracker

// #region update
// Update feeds embedding into the engine. Journal failures are logged and do
// not fail the update.
func (t *Tracker) Update(ctx context.Context, embedding []float32, nowMs float64) (state.UpdateResult, error) {
	t.mu.Lock()
	baseline := t.engine.Phase() == state.Uninitialized
	res, err := t.engine.Update(embedding, nowMs)
	if err != nil {
		t.mu.Unlock()
		t.metrics.ObserveError(errorKind(err))
		t.logger.Debug("update rejected", zap.Error(err), zap.Int("len", len(embedding)))
		return state.UpdateResult{}, err
	}
	count := t.engine.UpdateCount()
	dim := t.engine.Dimension()
	if t.recorder != nil {
		_, rerr := t.recorder.RecordUpdate(ctx, journal.UpdateEvent{
			StreamID:      t.streamID,
			NowMs:         nowMs,
			Dimension:     dim,
			DriftDetected: res.DriftDetected,
			DriftScore:    res.DriftScore,
			Embedding:     res.Vector,
			StateVector:   t.engine.StateVector(),
		})
		if rerr != nil {
			t.logger.Warn("journal update failed", zap.Error(rerr))
		}
	}
	t.mu.Unlock()

	t.metrics.ObserveUpdate(baseline, res.DriftDetected, res.DriftScore, dim)
	if baseline {
		t.logger.Info("baseline established", zap.Int("dimension", dim), zap.Float64("now_ms", nowMs))
	}
	if res.DriftDetected {
		t.logger.Info("drift detected",
			zap.Float32("drift_score", res.DriftScore),
			zap.Uint32("update_count", count),
			zap.Float64("now_ms", nowMs),
		)
		if t.onDrift != nil {
			t.onDrift(DriftAlert{StreamID: t.streamID, NowMs: nowMs, UpdateCount: count, Result: res})
		}
	}
	return res, nil
}

func errorKind(err error) string {
	var dimErr *state.DimensionMismatchError
	switch {
	case errors.As(err, &dimErr):
		return metrics.KindDimension
	case errors.Is(err, state.ErrEmptyEmbedding):
		return metrics.KindEmpty
	default:
		return "other"
	}
}

// #endregion update

// #region snapshot
// Snapshot returns the engine snapshot at nowMs.
func (t *Tracker) Snapshot(ctx context.Context, nowMs float64) state.Snapshot {
	t.mu.Lock()
	snap := t.engine.Snapshot(nowMs)
	if t.recorder != nil {
		_, err := t.recorder.RecordSnapshot(ctx, journal.SnapshotRecord{
			StreamID:        t.streamID,
			NowMs:           nowMs,
			HealthScore:     snap.HealthScore,
			SemanticSummary: snap.SemanticSummary,
			LastUpdatedAt:   snap.Timestamp,
		})
		if err != nil {
			t.logger.Warn("journal snapshot failed", zap.Error(err))
		}
	}
	t.mu.Unlock()

	t.metrics.ObserveSnapshot(snap.HealthScore)
	return snap
}

// #endregion snapshot

// #region accessors
// Now returns the tracker clock in milliseconds.
func (t *Tracker) Now() float64 {
	return t.clock()
}

// StreamID returns the tracked stream's identifier.
func (t *Tracker) StreamID() string {
	return t.streamID
}

// Info reports the stream's phase and parameters.
func (t *Tracker) Info() Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Info{
		StreamID:    t.streamID,
		Phase:       t.engine.Phase().String(),
		Dimension:   t.engine.Dimension(),
		UpdateCount: t.engine.UpdateCount(),
		Alpha:       t.engine.Alpha(),
		Threshold:   t.engine.DriftThreshold(),
	}
}

// #endregion accessors
