package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/semdrift/internal/health"
	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/danielpatrickdp/semdrift/internal/replay"
	"github.com/danielpatrickdp/semdrift/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var fixtureDir = filepath.Join("..", "..", "internal", "replay", "testdata")

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"replay"}, args...))
	return out.String(), err
}

func TestFixtureModePasses(t *testing.T) {
	out, err := runApp(t,
		"--fixture", filepath.Join(fixtureDir, "worked_example.json"),
		"--fixture", filepath.Join(fixtureDir, "stable_stream.json"),
		"--workers", "2",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "2 fixture(s), 0 failed")
}

func TestFixtureModeReportsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"engine":{"alpha":0.5,"drift_threshold":0.5},"steps":[
		{"id":"only","op":"update","embedding":[1,0],"expect":{"drift_detected":true}}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	out, err := runApp(t, "--fixture", path)
	require.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "drift_detected: want true, got false")
}

func TestFixtureModeJSON(t *testing.T) {
	out, err := runApp(t, "--json", "--fixture", filepath.Join(fixtureDir, "worked_example.json"))
	require.NoError(t, err)

	var reports []replay.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Drifts)
}

func TestJournalMode(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.NewStore(dbPath)
	require.NoError(t, err)

	stream, err := store.RegisterStream(ctx, journal.Stream{Alpha: 0.5, DriftThreshold: 0.5, AgeDecayRate: 0.0001, DriftWeight: 0.5})
	require.NoError(t, err)
	tr := tracker.New(
		tracker.Config{Alpha: 0.5, DriftThreshold: 0.5, Health: health.DefaultConfig()},
		tracker.WithStreamID(stream.StreamID),
		tracker.WithRecorder(store),
	)
	for i, emb := range [][]float32{{1, 0}, {0, 1}, {0.1, 1}} {
		_, err := tr.Update(ctx, emb, float64(i))
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	out, err := runApp(t, "--db", dbPath, "--stream", stream.StreamID)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "drifts=1")
}

func TestUsageErrors(t *testing.T) {
	_, err := runApp(t)
	require.Error(t, err)

	_, err = runApp(t, "--fixture", "a.json", "--stream", "s")
	require.Error(t, err)
}
