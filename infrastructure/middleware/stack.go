package middleware

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/infrastructure/security/audit"
	"github.com/imagereader/imagereader-mcp/infrastructure/telemetry"
)

// StackConfig selects the standard middleware.
type StackConfig struct {
	// Metrics receives execution metrics. Nil disables the metrics middleware.
	Metrics telemetry.Metrics
	// Tracer creates spans. Nil uses the global tracer provider.
	Tracer trace.Tracer
	// Audit receives one record per call. Nil disables auditing.
	Audit audit.Logger
	// RateLimit enables rate limiting when non-nil.
	RateLimit *RateLimitConfig
	// LogInput logs raw tool input.
	LogInput bool
}

// Stack returns the standard chain in execution order:
// request ID, tracing, logging, audit, metrics, rate limit, validation.
func Stack(cfg StackConfig) *middleware.Registry {
	tracing := DefaultTracingConfig()
	tracing.Tracer = cfg.Tracer

	r := middleware.NewRegistry().
		Use("request_id", RequestID()).
		Use("tracing", Tracing(tracing)).
		Use("logging", Logging(LoggingConfig{LogInput: cfg.LogInput}))
	if cfg.Audit != nil {
		r.Use("audit", audit.Middleware(audit.MiddlewareConfig{Logger: cfg.Audit}))
	}
	if cfg.Metrics != nil {
		r.Use("metrics", Metrics(MetricsConfig{Provider: cfg.Metrics}))
	}
	if cfg.RateLimit != nil {
		r.Use("rate_limit", RateLimit(*cfg.RateLimit))
	}
	return r.Use("validation", Validation(ValidationConfig{}))
}
