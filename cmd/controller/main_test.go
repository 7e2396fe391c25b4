package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/danielpatrickdp/semdrift/internal/health"
	"github.com/danielpatrickdp/semdrift/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// localClient runs the engine in-process.
type localClient struct {
	engine *state.Engine
	nows   []float64
}

func (l *localClient) Update(_ context.Context, emb []float32, nowMs float64) (state.UpdateResult, error) {
	l.nows = append(l.nows, nowMs)
	return l.engine.Update(emb, nowMs)
}

func (l *localClient) Snapshot(_ context.Context, nowMs float64) (state.Snapshot, error) {
	return l.engine.Snapshot(nowMs), nil
}

func (l *localClient) Normalize(_ context.Context, v []float32) ([]float32, error) {
	return state.Normalize(v), nil
}

func newLocal() *localClient {
	return &localClient{engine: state.New(0.5, 0.5, state.WithHealthConfig(health.DefaultConfig()))}
}

func TestShellSession(t *testing.T) {
	client := newLocal()
	in := strings.NewReader(strings.Join([]string{
		"[1, 0]",
		"",
		"[0, 1]",
		"snapshot 1000",
		"normalize [3, 4]",
		"[1, 2, 3]",
		"quit",
		"[5, 5]",
	}, "\n"))
	var out bytes.Buffer

	err := shell(context.Background(), in, &out, client, func() float64 { return 1000 })
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "[turn-1] drift=false score=0.0000")
	assert.Contains(t, got, "[turn-2] drift=true score=1.0000")
	assert.Contains(t, got, "health=0.5000 summary=volatile dim=2 last_update=1000")
	assert.Contains(t, got, "[0.6000, 0.8000]")
	assert.Contains(t, got, "[turn-3] update error: Embedding dimension mismatch: expected 2, got 3")
	assert.NotContains(t, got, "turn-4")
	assert.Equal(t, uint32(2), client.engine.UpdateCount())
}

func TestShellInvalidInput(t *testing.T) {
	in := strings.NewReader("hello\nsnapshot soon\nnormalize nope\n")
	var out bytes.Buffer

	require.NoError(t, shell(context.Background(), in, &out, newLocal(), func() float64 { return 0 }))
	got := out.String()
	assert.Contains(t, got, "invalid input")
	assert.Contains(t, got, "invalid now_ms")
	assert.Contains(t, got, "invalid vector")
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.5000, -1.0000]", formatVector([]float32{0.5, -1}))
}
