package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/semdrift/internal/config"
	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.GRPCAddr = "127.0.0.1:0"
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	require.NoError(t, cfg.Validate())
	return &cfg
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "driftd.db")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zap.NewNop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	store, err := journal.NewStore(cfg.Journal.Path)
	require.NoError(t, err)
	defer store.Close()
	streams, err := store.ListStreams(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, cfg.Engine.Alpha, streams[0].Alpha)
}

func TestServeFailsOnBadJournalPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "missing", "dir", "driftd.db")

	err := serve(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestConfigCommandPrintsYAML(t *testing.T) {
	t.Setenv("SEMDRIFT_ALPHA", "0.4")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"driftd", "config"}))

	assert.Contains(t, out.String(), "alpha: 0.4")
	assert.Contains(t, out.String(), "grpc_addr: localhost:50051")
}

func TestConfigCommandRejectsInvalid(t *testing.T) {
	t.Setenv("SEMDRIFT_ALPHA", "2")
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"driftd", "config"})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
