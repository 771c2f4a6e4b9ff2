package resilience

import (
	"time"

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
)

// Option adjusts an ExecutorConfig.
type Option func(*ExecutorConfig)

// WithMaxConcurrent caps how many images are decoded at once.
func WithMaxConcurrent(n int) Option {
	return func(c *ExecutorConfig) {
		c.MaxConcurrent = n
	}
}

// WithTimeout bounds a single call.
func WithTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.Timeout = d
	}
}

// FromConfig maps the resilience section of the server configuration.
// Zero values keep the defaults.
func FromConfig(cfg domainconfig.ResilienceConfig) Option {
	return func(c *ExecutorConfig) {
		if cfg.MaxConcurrent > 0 {
			c.MaxConcurrent = cfg.MaxConcurrent
		}
		if cfg.Timeout > 0 {
			c.Timeout = time.Duration(cfg.Timeout)
		}
	}
}

// NewExecutorWithOptions applies opts over DefaultExecutorConfig.
func NewExecutorWithOptions(opts ...Option) *Executor {
	config := DefaultExecutorConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewExecutor(config)
}
