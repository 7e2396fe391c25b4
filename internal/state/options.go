package state

import "github.com/danielpatrickdp/semdrift/internal/health"

type options struct {
	healthConfig health.Config
}

// Option configures an Engine.
type Option func(*options)

// WithHealthConfig overrides the default age decay and drift weight.
func WithHealthConfig(c health.Config) Option {
	return func(o *options) {
		o.healthConfig = c
	}
}
