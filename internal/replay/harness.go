// Package replay runs recorded embedding streams through fresh engines and
// checks the outcomes against expectations.
package replay

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/danielpatrickdp/semdrift/internal/state"
	"github.com/panjf2000/ants/v2"
)

// Tolerance is the absolute tolerance for float expectations.
const Tolerance = 1e-4

// #region types
// StepResult captures the outcome of one step.
type StepResult struct {
	StepID     string              `json:"id"`
	Op         string              `json:"op"`
	Update     *state.UpdateResult `json:"update,omitempty"`
	Snapshot   *state.Snapshot     `json:"snapshot,omitempty"`
	Err        string              `json:"error,omitempty"`
	Mismatches []string            `json:"mismatches,omitempty"`
}

// Passed reports whether every expectation held.
func (r StepResult) Passed() bool {
	return len(r.Mismatches) == 0
}

// Report summarizes a fixture run.
type Report struct {
	Description string       `json:"description"`
	Path        string       `json:"path,omitempty"`
	Steps       []StepResult `json:"steps"`
	Updates     int          `json:"updates"`
	Drifts      int          `json:"drifts"`
	Errors      int          `json:"errors"`
	Failures    int          `json:"failures"`
}

// Passed reports whether every step passed.
func (r Report) Passed() bool {
	return r.Failures == 0
}

// #endregion types

// #region replay
// Replay runs every step of f through one fresh engine, in order.
func Replay(f *Fixture) Report {
	engine := state.New(f.Engine.Alpha, f.Engine.DriftThreshold,
		state.WithHealthConfig(f.Engine.HealthConfig()))

	report := Report{
		Description: f.Description,
		Path:        f.Path,
		Steps:       make([]StepResult, 0, len(f.Steps)),
	}
	for _, step := range f.Steps {
		res := StepResult{StepID: step.ID, Op: step.Op}
		switch step.Op {
		case OpUpdate:
			out, err := engine.Update(step.Embedding, step.NowMs)
			if err != nil {
				res.Err = err.Error()
				report.Errors++
			} else {
				res.Update = &out
				report.Updates++
				if out.DriftDetected {
					report.Drifts++
				}
			}
		case OpSnapshot:
			snap := engine.Snapshot(step.NowMs)
			res.Snapshot = &snap
		default:
			res.Err = fmt.Sprintf("unknown op %q", step.Op)
		}
		res.Mismatches = check(step.Expect, res)
		if !res.Passed() {
			report.Failures++
		}
		report.Steps = append(report.Steps, res)
	}
	return report
}

func check(want Expectation, got StepResult) []string {
	var out []string
	if want.Error != nil {
		if got.Err != *want.Error {
			out = append(out, fmt.Sprintf("error: want %q, got %q", *want.Error, got.Err))
		}
		return out
	}
	if got.Err != "" {
		return append(out, fmt.Sprintf("unexpected error: %s", got.Err))
	}

	if u := got.Update; u != nil {
		if want.DriftDetected != nil && u.DriftDetected != *want.DriftDetected {
			out = append(out, fmt.Sprintf("drift_detected: want %t, got %t", *want.DriftDetected, u.DriftDetected))
		}
		if want.DriftScore != nil && !near(u.DriftScore, *want.DriftScore) {
			out = append(out, fmt.Sprintf("drift_score: want %.6f, got %.6f", *want.DriftScore, u.DriftScore))
		}
		if want.Vector != nil && !nearSlice(u.Vector, want.Vector) {
			out = append(out, fmt.Sprintf("vector: want %v, got %v", want.Vector, u.Vector))
		}
	}
	if s := got.Snapshot; s != nil {
		if want.HealthScore != nil && !near(s.HealthScore, *want.HealthScore) {
			out = append(out, fmt.Sprintf("health_score: want %.6f, got %.6f", *want.HealthScore, s.HealthScore))
		}
		if want.SemanticSummary != nil && s.SemanticSummary != *want.SemanticSummary {
			out = append(out, fmt.Sprintf("semantic_summary: want %q, got %q", *want.SemanticSummary, s.SemanticSummary))
		}
		if want.Vector != nil && !nearSlice(s.Vector, want.Vector) {
			out = append(out, fmt.Sprintf("vector: want %v, got %v", want.Vector, s.Vector))
		}
	}
	return out
}

func near(a, b float32) bool {
	return math.Abs(float64(a)-float64(b)) <= Tolerance
}

func nearSlice(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !near(a[i], b[i]) {
			return false
		}
	}
	return true
}

// #endregion replay

// #region run-all
// RunAll replays fixtures concurrently on a pool of workers. Each fixture
// gets its own engine. Reports are returned in input order.
func RunAll(ctx context.Context, fixtures []*Fixture, workers int) ([]Report, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create replay pool: %w", err)
	}
	defer pool.Release()

	reports := make([]Report, len(fixtures))
	var wg sync.WaitGroup
	for i, f := range fixtures {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			reports[i] = Replay(f)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit fixture %d: %w", i, err)
		}
	}
	wg.Wait()
	return reports, nil
}

// #endregion run-all
