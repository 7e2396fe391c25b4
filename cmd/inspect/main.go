package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/danielpatrickdp/semdrift/internal/vecmath"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const timeLayout = "2006-01-02T15:04:05Z"

// #region main

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "inspect",
		Usage: "Inspect a semdrift journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Path to the journal database",
				EnvVars:  []string{"SEMDRIFT_DB"},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "stream",
				Usage: "Show recent updates of one stream",
			},
			&cli.StringFlag{
				Name:  "event",
				Usage: "Show a single update event in detail",
			},
			&cli.IntFlag{
				Name:  "last",
				Usage: "Show N most recent updates",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "snapshots",
				Usage: "With --stream, list recorded snapshots instead of updates",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON instead of a table",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	store, err := journal.NewStore(c.String("db"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	in := &inspector{store: store, w: c.App.Writer, jsonOut: c.Bool("json")}
	switch {
	case c.String("event") != "":
		return in.eventDetail(c, c.String("event"))
	case c.String("stream") != "" && c.Bool("snapshots"):
		return in.listSnapshots(c, c.String("stream"), c.Int("last"))
	case c.String("stream") != "":
		return in.listEvents(c, c.String("stream"), c.Int("last"))
	default:
		return in.listStreams(c)
	}
}

type inspector struct {
	store   *journal.Store
	w       io.Writer
	jsonOut bool
}

// #endregion main

// #region streams

type streamRow struct {
	StreamID       string  `json:"stream_id"`
	Alpha          float32 `json:"alpha"`
	DriftThreshold float32 `json:"drift_threshold"`
	AgeDecayRate   float32 `json:"age_decay_rate"`
	DriftWeight    float32 `json:"drift_weight"`
	CreatedAt      string  `json:"created_at"`
}

func (in *inspector) listStreams(c *cli.Context) error {
	streams, err := in.store.ListStreams(c.Context)
	if err != nil {
		return err
	}
	rows := make([]streamRow, len(streams))
	for i, s := range streams {
		rows[i] = streamRow{
			StreamID:       s.StreamID,
			Alpha:          s.Alpha,
			DriftThreshold: s.DriftThreshold,
			AgeDecayRate:   s.AgeDecayRate,
			DriftWeight:    s.DriftWeight,
			CreatedAt:      s.CreatedAt.UTC().Format(timeLayout),
		}
	}
	if in.jsonOut {
		return in.printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(in.w, "no streams found")
		return nil
	}

	fmt.Fprintf(in.w, "%-36s  %6s  %9s  %10s  %6s  %s\n",
		"Stream", "Alpha", "Threshold", "Age Decay", "Weight", "Created")
	for _, r := range rows {
		fmt.Fprintf(in.w, "%-36s  %6.3f  %9.3f  %10.6f  %6.3f  %s\n",
			r.StreamID, r.Alpha, r.DriftThreshold, r.AgeDecayRate, r.DriftWeight, r.CreatedAt)
	}
	return nil
}

// #endregion streams

// #region events

type eventRow struct {
	EventID       string  `json:"event_id"`
	Seq           int64   `json:"seq"`
	NowMs         float64 `json:"now_ms"`
	Dimension     int     `json:"dimension"`
	DriftDetected bool    `json:"drift_detected"`
	DriftScore    float32 `json:"drift_score"`
	StateNorm     float32 `json:"state_norm"`
	CreatedAt     string  `json:"created_at"`
}

func toEventRow(ev journal.UpdateEvent) eventRow {
	return eventRow{
		EventID:       ev.EventID,
		Seq:           ev.Seq,
		NowMs:         ev.NowMs,
		Dimension:     ev.Dimension,
		DriftDetected: ev.DriftDetected,
		DriftScore:    ev.DriftScore,
		StateNorm:     vecmath.Magnitude(ev.StateVector),
		CreatedAt:     ev.CreatedAt.UTC().Format(timeLayout),
	}
}

func (in *inspector) listEvents(c *cli.Context, streamID string, last int) error {
	if _, err := in.store.GetStream(c.Context, streamID); err != nil {
		return err
	}
	events, err := in.store.ListEvents(c.Context, streamID, last)
	if err != nil {
		return err
	}

	// Store returns most recent first; print chronologically.
	rows := make([]eventRow, len(events))
	for i, ev := range events {
		rows[len(events)-1-i] = toEventRow(ev)
	}
	if in.jsonOut {
		return in.printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(in.w, "no updates recorded")
		return nil
	}

	drifts := 0
	fmt.Fprintf(in.w, "%6s  %-12s  %12s  %5s  %-5s  %8s  %10s  %s\n",
		"Seq", "Event", "Now (ms)", "Dim", "Drift", "Score", "State Norm", "Time")
	for _, r := range rows {
		mark := ""
		if r.DriftDetected {
			mark = "yes"
			drifts++
		}
		fmt.Fprintf(in.w, "%6d  %-12s  %12.0f  %5d  %-5s  %8.4f  %10.4f  %s\n",
			r.Seq, shortID(r.EventID), r.NowMs, r.Dimension, mark, r.DriftScore, r.StateNorm, r.CreatedAt)
	}
	fmt.Fprintf(in.w, "\n%d update(s), %d drift(s)\n", len(rows), drifts)
	return nil
}

type eventDetail struct {
	eventRow
	StreamID    string    `json:"stream_id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Embedding   []float32 `json:"embedding"`
	StateVector []float32 `json:"state_vector"`
}

func (in *inspector) eventDetail(c *cli.Context, id string) error {
	ev, err := in.store.GetEvent(c.Context, id)
	if err != nil {
		return err
	}
	out := eventDetail{
		eventRow:    toEventRow(ev),
		StreamID:    ev.StreamID,
		ParentID:    ev.ParentID,
		Embedding:   ev.Embedding,
		StateVector: ev.StateVector,
	}
	if in.jsonOut {
		return in.printJSON(out)
	}

	fmt.Fprintf(in.w, "Event:      %s\n", out.EventID)
	fmt.Fprintf(in.w, "Stream:     %s\n", out.StreamID)
	fmt.Fprintf(in.w, "Parent:     %s\n", out.ParentID)
	fmt.Fprintf(in.w, "Seq:        %d\n", out.Seq)
	fmt.Fprintf(in.w, "Now (ms):   %.0f\n", out.NowMs)
	fmt.Fprintf(in.w, "Dimension:  %d\n", out.Dimension)
	fmt.Fprintf(in.w, "Drift:      %v (score %.4f)\n", out.DriftDetected, out.DriftScore)
	fmt.Fprintf(in.w, "State Norm: %.4f\n", out.StateNorm)
	fmt.Fprintf(in.w, "Created:    %s\n", out.CreatedAt)
	return nil
}

// #endregion events

// #region snapshots

type snapshotRow struct {
	NowMs           float64 `json:"now_ms"`
	HealthScore     float32 `json:"health_score"`
	SemanticSummary string  `json:"semantic_summary"`
	LastUpdatedAt   float64 `json:"last_updated_at"`
	CreatedAt       string  `json:"created_at"`
}

func (in *inspector) listSnapshots(c *cli.Context, streamID string, last int) error {
	snaps, err := in.store.ListSnapshots(c.Context, streamID, last)
	if err != nil {
		return err
	}
	rows := make([]snapshotRow, len(snaps))
	for i, s := range snaps {
		rows[i] = snapshotRow{
			NowMs:           s.NowMs,
			HealthScore:     s.HealthScore,
			SemanticSummary: s.SemanticSummary,
			LastUpdatedAt:   s.LastUpdatedAt,
			CreatedAt:       s.CreatedAt.UTC().Format(timeLayout),
		}
	}
	if in.jsonOut {
		return in.printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(in.w, "no snapshots recorded")
		return nil
	}

	fmt.Fprintf(in.w, "%12s  %7s  %-9s  %14s  %s\n", "Now (ms)", "Health", "Summary", "Last Update", "Time")
	for _, r := range rows {
		fmt.Fprintf(in.w, "%12.0f  %7.4f  %-9s  %14.0f  %s\n",
			r.NowMs, r.HealthScore, r.SemanticSummary, r.LastUpdatedAt, r.CreatedAt)
	}
	return nil
}

// #endregion snapshots

// #region output

func (in *inspector) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(in.w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
