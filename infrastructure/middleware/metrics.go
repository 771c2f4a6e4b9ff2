package middleware

import (
	"context"
	"time"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/telemetry"
)

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	// Provider is the metrics provider to use.
	Provider telemetry.Metrics
}

// Metrics creates a middleware that records execution count, duration,
// failures and the in-flight gauge.
func Metrics(config MetricsConfig) middleware.Middleware {
	if config.Provider == nil {
		config.Provider = &telemetry.NoopMetricsProvider{}
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()
			config.Provider.IncrementActive(ctx)
			defer config.Provider.DecrementActive(ctx)

			result, err := next(ctx, execCtx)

			config.Provider.RecordToolExecution(ctx, execCtx.Tool.Name(), err == nil, err != nil || result.IsError, time.Since(start))
			return result, err
		}
	}
}
