// Package config loads driftd configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/danielpatrickdp/semdrift/internal/health"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// #region types
// Config holds all configuration for driftd.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	Journal JournalConfig `yaml:"journal"`
}

// EngineConfig holds the drift engine parameters.
type EngineConfig struct {
	Alpha          float32 `yaml:"alpha"`
	DriftThreshold float32 `yaml:"drift_threshold"`
	AgeDecayRate   float32 `yaml:"age_decay_rate"`
	DriftWeight    float32 `yaml:"drift_weight"`
}

// HealthConfig returns the health model knobs.
func (e EngineConfig) HealthConfig() health.Config {
	return health.Config{AgeDecayRate: e.AgeDecayRate, DriftWeight: e.DriftWeight}
}

// ServerConfig holds transport settings.
type ServerConfig struct {
	GRPCAddr  string  `yaml:"grpc_addr"`
	HTTPAddr  string  `yaml:"http_addr"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst int     `yaml:"rate_burst"`
}

// JournalConfig holds the audit journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// #endregion types

// #region load
// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	ApplyDefaults(&cfg)
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// #endregion load

// #region env
// ApplyEnv overrides fields from SEMDRIFT_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("SEMDRIFT_ALPHA"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("parse SEMDRIFT_ALPHA: %w", err)
		}
		cfg.Engine.Alpha = float32(f)
	}
	if v := os.Getenv("SEMDRIFT_DRIFT_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("parse SEMDRIFT_DRIFT_THRESHOLD: %w", err)
		}
		cfg.Engine.DriftThreshold = float32(f)
	}
	if v := os.Getenv("SEMDRIFT_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse SEMDRIFT_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	cfg.Journal.Path = envOr("SEMDRIFT_DB", cfg.Journal.Path)
	cfg.Server.GRPCAddr = envOr("SEMDRIFT_GRPC_ADDR", cfg.Server.GRPCAddr)
	cfg.Server.HTTPAddr = envOr("SEMDRIFT_HTTP_ADDR", cfg.Server.HTTPAddr)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion env

// #region validate
// Validate rejects parameter values that make the engine's behavior
// meaningless: alpha outside [0, 1], a threshold outside [-1, 1], negative or
// non-finite health knobs.
func (c *Config) Validate() error {
	e := c.Engine
	if !finite(e.Alpha) || e.Alpha < 0 || e.Alpha > 1 {
		return fmt.Errorf("%w: alpha %v outside [0, 1]", ErrInvalidConfig, e.Alpha)
	}
	if !finite(e.DriftThreshold) || e.DriftThreshold < -1 || e.DriftThreshold > 1 {
		return fmt.Errorf("%w: drift_threshold %v outside [-1, 1]", ErrInvalidConfig, e.DriftThreshold)
	}
	if !finite(e.AgeDecayRate) || e.AgeDecayRate < 0 {
		return fmt.Errorf("%w: age_decay_rate %v must be a non-negative number", ErrInvalidConfig, e.AgeDecayRate)
	}
	if !finite(e.DriftWeight) || e.DriftWeight < 0 {
		return fmt.Errorf("%w: drift_weight %v must be a non-negative number", ErrInvalidConfig, e.DriftWeight)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit %v must not be negative", ErrInvalidConfig, c.Server.RateLimit)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("%w: journal enabled without a path", ErrInvalidConfig)
	}
	return nil
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// #endregion validate
