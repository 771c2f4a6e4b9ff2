// Package observability provides OpenTelemetry trace export.
package observability

import (
	"io"
	"os"
	"time"

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
)

// ExporterType specifies the trace exporter.
type ExporterType string

const (
	// ExporterOTLP exports to an OTLP gRPC endpoint (Jaeger, Tempo, Grafana).
	ExporterOTLP ExporterType = "otlp"

	// ExporterStdout writes spans as JSON. The writer defaults to stderr
	// because stdout carries the stdio transport.
	ExporterStdout ExporterType = "stdout"

	// ExporterNoop disables export.
	ExporterNoop ExporterType = "noop"
)

// Config configures the observability infrastructure.
type Config struct {
	// ServiceName is the name of the service for telemetry.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment.
	Environment string

	// Enabled enables tracing.
	Enabled bool
	// Exporter specifies the trace exporter type.
	Exporter ExporterType
	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string
	// Insecure disables TLS for the exporter connection.
	Insecure bool
	// SampleRate is the sampling rate (0.0-1.0).
	SampleRate float64
	// BatchTimeout is the batch export timeout.
	BatchTimeout time.Duration
	// Writer receives stdout-exporter output.
	Writer io.Writer
}

// DefaultConfig returns a configuration with tracing disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    domainconfig.DefaultName,
		ServiceVersion: domainconfig.DefaultVersion,
		Environment:    "development",
		Exporter:       ExporterStdout,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Writer:         os.Stderr,
	}
}

// FromServerConfig maps the telemetry section of a server config.
func FromServerConfig(cfg *domainconfig.ServerConfig) Config {
	c := DefaultConfig()
	c.ServiceName = cfg.Name
	c.ServiceVersion = cfg.Version
	c.Enabled = cfg.Telemetry.Tracing.Enabled
	c.Exporter = ExporterType(cfg.Telemetry.Tracing.Exporter)
	c.Endpoint = cfg.Telemetry.Tracing.Endpoint
	c.Insecure = cfg.Telemetry.Tracing.Insecure
	c.SampleRate = cfg.Telemetry.Tracing.SampleRate
	return c
}

// Option configures the provider.
type Option func(*Config)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithStdoutTracing enables tracing to w.
func WithStdoutTracing(w io.Writer) Option {
	return func(c *Config) {
		c.Enabled = true
		c.Exporter = ExporterStdout
		c.Writer = w
	}
}

// WithOTLP enables tracing to an OTLP endpoint.
func WithOTLP(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.Enabled = true
		c.Exporter = ExporterOTLP
		c.Endpoint = endpoint
		c.Insecure = insecure
	}
}

// WithSampleRate sets the sampling rate.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}
