// Package config provides domain models for server configuration.
package config

import (
	"time"

	"github.com/imagereader/imagereader-mcp/domain/image"
)

// Transport names.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultName          = "ImageReader"
	DefaultVersion       = "1.0.0"
	DefaultAddress       = ":8080"
	DefaultMaxInputBytes = 50 << 20
	DefaultFilter        = "lanczos"
	DefaultBackground    = "#ffffff"
	DefaultTimeout       = 30 * time.Second
	DefaultConcurrency   = 4
)

// DefaultMaxInputPixels is the pixel limit applied before decoding.
const DefaultMaxInputPixels = image.DefaultMaxInputPixels

// ResamplingFilters lists the accepted codec.resampling_filter values.
var ResamplingFilters = []string{"lanczos", "catmullrom", "mitchell", "linear", "box", "nearest"}

// ServerConfig represents the complete server configuration.
type ServerConfig struct {
	// Name is the server name reported during the MCP handshake.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Version is the server version reported during the MCP handshake.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	// Instructions are optional usage hints sent to the client.
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty"`

	// Transport is stdio or http.
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`
	// Address is the listen address for the http transport.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Compaction is the size and dimension budget.
	Compaction image.CompactionConfig `json:"compaction,omitempty" yaml:"compaction,omitempty"`
	// Codec tunes resampling and JPEG flattening.
	Codec CodecConfig `json:"codec,omitempty" yaml:"codec,omitempty"`
	// Limits bounds what the tool will read.
	Limits LimitsConfig `json:"limits,omitempty" yaml:"limits,omitempty"`
	// Logging configures the logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Resilience bounds concurrent and slow executions.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Telemetry configures tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	// Audit records every file access.
	Audit AuditConfig `json:"audit,omitempty" yaml:"audit,omitempty"`
}

// AuditConfig configures the file access audit trail.
type AuditConfig struct {
	// Enabled turns on audit records.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Path is the JSON lines file records are appended to. Empty writes to stderr.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// CodecConfig tunes the image codec. It is read once at startup.
type CodecConfig struct {
	// ResamplingFilter is one of ResamplingFilters.
	ResamplingFilter string `json:"resampling_filter,omitempty" yaml:"resampling_filter,omitempty"`
	// JPEGBackground is the #rrggbb color transparent pixels are flattened onto.
	JPEGBackground string `json:"jpeg_background,omitempty" yaml:"jpeg_background,omitempty"`
}

// LimitsConfig bounds tool input.
type LimitsConfig struct {
	// MaxInputBytes is the largest file read_image will load.
	MaxInputBytes int64 `json:"max_input_bytes,omitempty" yaml:"max_input_bytes,omitempty"`
	// MaxInputPixels is the largest width*height read_image will decode.
	MaxInputPixels int64 `json:"max_input_pixels,omitempty" yaml:"max_input_pixels,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// Timeout is the per-call timeout.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// MaxConcurrent bounds concurrent tool executions.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	// RateLimit throttles calls across all clients.
	RateLimit RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// RateLimitConfig configures token-bucket rate limiting.
type RateLimitConfig struct {
	// Enabled enables rate limiting.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Rate is the tokens per second.
	Rate int `json:"rate,omitempty" yaml:"rate,omitempty"`
	// Burst is the maximum burst size.
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty"`
	// PerTool gives every tool its own bucket instead of one shared bucket.
	PerTool bool `json:"per_tool,omitempty" yaml:"per_tool,omitempty"`
}

// TelemetryConfig contains telemetry settings.
type TelemetryConfig struct {
	// Tracing configures trace export.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// TracingConfig configures trace export.
type TracingConfig struct {
	// Enabled enables tracing.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Exporter is stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP gRPC endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for the OTLP exporter.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the fraction of traces sampled (0-1).
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Default returns a fully populated configuration.
func Default() ServerConfig {
	var c ServerConfig
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *ServerConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	c.Compaction = c.Compaction.WithDefaults()
	if c.Limits.MaxInputBytes == 0 {
		c.Limits.MaxInputBytes = DefaultMaxInputBytes
	}
	if c.Limits.MaxInputPixels == 0 {
		c.Limits.MaxInputPixels = DefaultMaxInputPixels
	}
	if c.Codec.ResamplingFilter == "" {
		c.Codec.ResamplingFilter = DefaultFilter
	}
	if c.Codec.JPEGBackground == "" {
		c.Codec.JPEGBackground = DefaultBackground
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Resilience.Timeout == 0 {
		c.Resilience.Timeout = Duration(DefaultTimeout)
	}
	if c.Resilience.MaxConcurrent == 0 {
		c.Resilience.MaxConcurrent = DefaultConcurrency
	}
	if c.Telemetry.Tracing.Exporter == "" {
		c.Telemetry.Tracing.Exporter = "stdout"
	}
	if c.Telemetry.Tracing.SampleRate == 0 {
		c.Telemetry.Tracing.SampleRate = 1
	}
}
