package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/semdrift/internal/health"
)

// Step operations.
const (
	OpUpdate   = "update"
	OpSnapshot = "snapshot"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Engine      FixtureEngine `json:"engine"`
	Steps       []Step        `json:"steps"`

	// Path is the file the fixture was loaded from, if any.
	Path string `json:"-"`
}

// FixtureEngine holds the engine parameters. Omitted health knobs use the
// health package defaults.
type FixtureEngine struct {
	Alpha          float32  `json:"alpha"`
	DriftThreshold float32  `json:"drift_threshold"`
	AgeDecayRate   *float32 `json:"age_decay_rate,omitempty"`
	DriftWeight    *float32 `json:"drift_weight,omitempty"`
}

// Step is one engine call.
type Step struct {
	ID        string      `json:"id"`
	Op        string      `json:"op"`
	Embedding []float32   `json:"embedding,omitempty"`
	NowMs     float64     `json:"now_ms"`
	Expect    Expectation `json:"expect"`
}

// Expectation lists the checked outcome of a step. Nil fields are not checked.
type Expectation struct {
	DriftDetected   *bool     `json:"drift_detected,omitempty"`
	DriftScore      *float32  `json:"drift_score,omitempty"`
	Error           *string   `json:"error,omitempty"`
	HealthScore     *float32  `json:"health_score,omitempty"`
	SemanticSummary *string   `json:"semantic_summary,omitempty"`
	Vector          []float32 `json:"vector,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, s := range f.Steps {
		if s.Op != OpUpdate && s.Op != OpSnapshot {
			return nil, fmt.Errorf("fixture %s: step %d (%s): unknown op %q", path, i, s.ID, s.Op)
		}
	}
	f.Path = path
	return &f, nil
}

// HealthConfig returns the health parameters, defaulting omitted knobs.
func (e FixtureEngine) HealthConfig() health.Config {
	cfg := health.DefaultConfig()
	if e.AgeDecayRate != nil {
		cfg.AgeDecayRate = *e.AgeDecayRate
	}
	if e.DriftWeight != nil {
		cfg.DriftWeight = *e.DriftWeight
	}
	return cfg
}

// #endregion fixture-loader
