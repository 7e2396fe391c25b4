// Package journal is an append-only SQLite audit log of engine updates and
// snapshots. It is never read back into an engine.
package journal

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS streams (
	stream_id        TEXT PRIMARY KEY,
	alpha            REAL NOT NULL,
	drift_threshold  REAL NOT NULL,
	age_decay_rate   REAL NOT NULL,
	drift_weight     REAL NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS update_events (
	event_id         TEXT PRIMARY KEY,
	stream_id        TEXT NOT NULL,
	parent_id        TEXT,
	seq              INTEGER NOT NULL,
	now_ms           REAL NOT NULL,
	dimension        INTEGER NOT NULL,
	drift_detected   INTEGER NOT NULL,
	drift_score      REAL NOT NULL,
	embedding        BLOB NOT NULL,
	state_vector     BLOB NOT NULL,
	created_at       TEXT NOT NULL,
	FOREIGN KEY (stream_id) REFERENCES streams(stream_id),
	FOREIGN KEY (parent_id) REFERENCES update_events(event_id)
);

CREATE INDEX IF NOT EXISTS idx_update_events_stream_seq ON update_events(stream_id, seq);

CREATE TABLE IF NOT EXISTS snapshots (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	stream_id        TEXT NOT NULL,
	now_ms           REAL NOT NULL,
	health_score     REAL NOT NULL,
	semantic_summary TEXT NOT NULL,
	last_updated_at  REAL NOT NULL,
	created_at       TEXT NOT NULL,
	FOREIGN KEY (stream_id) REFERENCES streams(stream_id)
);
`

// #endregion schema

// #region store-struct
// Store manages the journal in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-migrated database. Used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region register-stream
// RegisterStream inserts a stream row. A zero StreamID is replaced by a new
// UUID; the stored stream is returned.
func (s *Store) RegisterStream(ctx context.Context, st Stream) (Stream, error) {
	if st.StreamID == "" {
		st.StreamID = uuid.New().String()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streams (stream_id, alpha, drift_threshold, age_decay_rate, drift_weight, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.StreamID, st.Alpha, st.DriftThreshold, st.AgeDecayRate, st.DriftWeight,
		st.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Stream{}, fmt.Errorf("insert stream: %w", err)
	}
	return st, nil
}

// #endregion register-stream

// #region get-stream
// GetStream retrieves a stream by ID.
func (s *Store) GetStream(ctx context.Context, id string) (Stream, error) {
	var st Stream
	var createdStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT stream_id, alpha, drift_threshold, age_decay_rate, drift_weight, created_at
		 FROM streams WHERE stream_id = ?`, id,
	).Scan(&st.StreamID, &st.Alpha, &st.DriftThreshold, &st.AgeDecayRate, &st.DriftWeight, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Stream{}, fmt.Errorf("get stream %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Stream{}, fmt.Errorf("get stream %s: %w", id, err)
	}
	st.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return st, nil
}

// ListStreams returns all streams, newest first.
func (s *Store) ListStreams(ctx context.Context) ([]Stream, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stream_id, alpha, drift_threshold, age_decay_rate, drift_weight, created_at
		 FROM streams ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var streams []Stream
	for rows.Next() {
		var st Stream
		var createdStr string
		if err := rows.Scan(&st.StreamID, &st.Alpha, &st.DriftThreshold, &st.AgeDecayRate, &st.DriftWeight, &createdStr); err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		st.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		streams = append(streams, st)
	}
	return streams, rows.Err()
}

// #endregion get-stream

// #region record-update
// RecordUpdate appends an update event to its stream, linking it to the
// stream's previous event. The stored event is returned.
func (s *Store) RecordUpdate(ctx context.Context, ev UpdateEvent) (UpdateEvent, error) {
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.Dimension == 0 {
		ev.Dimension = len(ev.Embedding)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpdateEvent{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentID sql.NullString
	var lastSeq sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT event_id, seq FROM update_events WHERE stream_id = ? ORDER BY seq DESC LIMIT 1`,
		ev.StreamID,
	).Scan(&parentID, &lastSeq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return UpdateEvent{}, fmt.Errorf("find parent: %w", err)
	}
	ev.ParentID = parentID.String
	ev.Seq = lastSeq.Int64 + 1

	_, err = tx.ExecContext(ctx,
		`INSERT INTO update_events (event_id, stream_id, parent_id, seq, now_ms, dimension,
		   drift_detected, drift_score, embedding, state_vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.StreamID, nullIfEmpty(ev.ParentID), ev.Seq, ev.NowMs, ev.Dimension,
		boolToInt(ev.DriftDetected), ev.DriftScore, encodeVector(ev.Embedding), encodeVector(ev.StateVector),
		ev.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return UpdateEvent{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return UpdateEvent{}, fmt.Errorf("commit: %w", err)
	}
	return ev, nil
}

// #endregion record-update

// #region record-snapshot
// RecordSnapshot appends a snapshot row.
func (s *Store) RecordSnapshot(ctx context.Context, rec SnapshotRecord) (SnapshotRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (stream_id, now_ms, health_score, semantic_summary, last_updated_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.StreamID, rec.NowMs, rec.HealthScore, rec.SemanticSummary, rec.LastUpdatedAt,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("insert snapshot: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return rec, nil
}

// ListSnapshots returns the most recent snapshots of a stream, newest first.
func (s *Store) ListSnapshots(ctx context.Context, streamID string, limit int) ([]SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stream_id, now_ms, health_score, semantic_summary, last_updated_at, created_at
		 FROM snapshots WHERE stream_id = ? ORDER BY id DESC LIMIT ?`, streamID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var recs []SnapshotRecord
	for rows.Next() {
		var r SnapshotRecord
		var createdStr string
		if err := rows.Scan(&r.ID, &r.StreamID, &r.NowMs, &r.HealthScore, &r.SemanticSummary, &r.LastUpdatedAt, &createdStr); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// #endregion record-snapshot

// #region list-events
const eventColumns = `event_id, stream_id, parent_id, seq, now_ms, dimension,
	drift_detected, drift_score, embedding, state_vector, created_at`

// GetEvent retrieves a single update event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (UpdateEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM update_events WHERE event_id = ?`, id,
	)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return UpdateEvent{}, fmt.Errorf("get event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return UpdateEvent{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

// ListEvents returns the most recent events of a stream, newest first.
func (s *Store) ListEvents(ctx context.Context, streamID string, limit int) ([]UpdateEvent, error) {
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM update_events WHERE stream_id = ? ORDER BY seq DESC LIMIT ?`,
		streamID, limit,
	)
}

// StreamEvents returns every event of a stream in the order it was recorded.
func (s *Store) StreamEvents(ctx context.Context, streamID string) ([]UpdateEvent, error) {
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM update_events WHERE stream_id = ? ORDER BY seq ASC`,
		streamID,
	)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]UpdateEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []UpdateEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (UpdateEvent, error) {
	var ev UpdateEvent
	var parentID sql.NullString
	var detected int
	var embBlob, stateBlob []byte
	var createdStr string
	err := r.Scan(&ev.EventID, &ev.StreamID, &parentID, &ev.Seq, &ev.NowMs, &ev.Dimension,
		&detected, &ev.DriftScore, &embBlob, &stateBlob, &createdStr)
	if err != nil {
		return UpdateEvent{}, err
	}
	ev.ParentID = parentID.String
	ev.DriftDetected = detected != 0
	ev.Embedding = decodeVector(embBlob)
	ev.StateVector = decodeVector(stateBlob)
	ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return ev, nil
}

// #endregion list-events

// #region vector-encoding
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// #endregion vector-encoding

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
