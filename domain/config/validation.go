package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates server configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
// Defaults are expected to have been applied.
func (v *Validator) Validate(config *ServerConfig) ValidationErrors {
	v.errors = nil

	v.validateServer(config)
	v.validateCompaction(config)
	v.validateCodec(config)
	v.validateLogging(config)
	v.validateResilience(config)
	v.validateTelemetry(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateServer(config *ServerConfig) {
	switch config.Transport {
	case TransportStdio, TransportHTTP:
	default:
		v.addError("transport", fmt.Sprintf("invalid transport: %s", config.Transport))
	}
	if config.Transport == TransportHTTP && config.Address == "" {
		v.addError("address", "address is required for http transport")
	}
	if config.Limits.MaxInputBytes <= 0 {
		v.addError("limits.max_input_bytes", "max_input_bytes must be positive")
	}
	if config.Limits.MaxInputPixels <= 0 {
		v.addError("limits.max_input_pixels", "max_input_pixels must be positive")
	}
}

func (v *Validator) validateCodec(config *ServerConfig) {
	filter := strings.ToLower(config.Codec.ResamplingFilter)
	known := false
	for _, f := range ResamplingFilters {
		if f == filter {
			known = true
			break
		}
	}
	if !known {
		v.addError("codec.resampling_filter", fmt.Sprintf("invalid filter: %s", config.Codec.ResamplingFilter))
	}
	if _, err := ParseHexColor(config.Codec.JPEGBackground); err != nil {
		v.addError("codec.jpeg_background", err.Error())
	}
}

func (v *Validator) validateCompaction(config *ServerConfig) {
	if err := config.Compaction.Validate(); err != nil {
		v.addError("compaction", err.Error())
	}
}

func (v *Validator) validateLogging(config *ServerConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(config.Logging.Level)] {
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
	}
	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateResilience(config *ServerConfig) {
	if config.Resilience.Timeout < 0 {
		v.addError("resilience.timeout", "timeout must be non-negative")
	}
	if config.Resilience.MaxConcurrent <= 0 {
		v.addError("resilience.max_concurrent", "max_concurrent must be positive")
	}
	if rl := config.Resilience.RateLimit; rl.Enabled {
		if rl.Rate <= 0 {
			v.addError("resilience.rate_limit.rate", "rate must be positive when enabled")
		}
		if rl.Burst < 0 {
			v.addError("resilience.rate_limit.burst", "burst must be non-negative")
		}
	}
}

func (v *Validator) validateTelemetry(config *ServerConfig) {
	tracing := config.Telemetry.Tracing
	if !tracing.Enabled {
		return
	}
	switch tracing.Exporter {
	case "stdout":
	case "otlp":
		if tracing.Endpoint == "" {
			v.addError("telemetry.tracing.endpoint", "endpoint is required for otlp exporter")
		}
	default:
		v.addError("telemetry.tracing.exporter", fmt.Sprintf("unknown exporter: %s", tracing.Exporter))
	}
	if tracing.SampleRate < 0 || tracing.SampleRate > 1 {
		v.addError("telemetry.tracing.sample_rate", "sample_rate must be in [0, 1]")
	}
}
