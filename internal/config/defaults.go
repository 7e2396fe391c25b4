package config

import "github.com/danielpatrickdp/semdrift/internal/health"

// Engine defaults used when the config leaves a value unset.
const (
	DefaultAlpha          float32 = 0.3
	DefaultDriftThreshold float32 = 0.75
)

// Default returns the configuration used before any file or environment
// override is applied. Load decodes YAML over it, so an engine key that is
// present keeps its value even when that value is 0.
func Default() Config {
	hc := health.DefaultConfig()
	cfg := Config{
		Engine: EngineConfig{
			Alpha:          DefaultAlpha,
			DriftThreshold: DefaultDriftThreshold,
			AgeDecayRate:   hc.AgeDecayRate,
			DriftWeight:    hc.DriftWeight,
		},
	}
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills the settings that have no meaningful empty value:
// listen addresses, the journal path and the rate burst.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.GRPCAddr == "" {
		cfg.Server.GRPCAddr = "localhost:50051"
	}
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = "localhost:8080"
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = int(cfg.Server.RateLimit) + 1
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "semdrift.db"
	}
}
