package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/semdrift/internal/health"
	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/danielpatrickdp/semdrift/internal/replay"
	"github.com/danielpatrickdp/semdrift/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")

	store, err := journal.NewStore(dbPath)
	require.NoError(t, err)
	stream, err := store.RegisterStream(ctx, journal.Stream{Alpha: 0.3, DriftThreshold: 0.75, AgeDecayRate: 0.0001, DriftWeight: 0.5})
	require.NoError(t, err)
	tr := tracker.New(
		tracker.Config{Alpha: 0.3, DriftThreshold: 0.75, Health: health.DefaultConfig()},
		tracker.WithStreamID(stream.StreamID),
		tracker.WithRecorder(store),
	)
	for i, emb := range [][]float32{{1, 0, 0}, {0.9, 0.2, 0}, {0, 0, 1}, {0, 0.1, 1}} {
		_, err := tr.Update(ctx, emb, float64(i*250))
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	outPath := filepath.Join(dir, "fixture.json")
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"fixture-export", "--db", dbPath, "--stream", stream.StreamID, "--out", outPath, "--description", "exported"}))
	assert.Contains(t, out.String(), "5 steps")

	f, err := replay.LoadFixture(outPath)
	require.NoError(t, err)
	assert.Equal(t, "exported", f.Description)
	report := replay.Replay(f)
	assert.True(t, report.Passed(), "%+v", report.Steps)
	assert.Equal(t, 4, report.Updates)
}

func TestExportUnknownStream(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = run(context.Background(), &bytes.Buffer{}, dbPath, "missing", filepath.Join(t.TempDir(), "f.json"), "")
	require.ErrorIs(t, err, journal.ErrNotFound)
}
