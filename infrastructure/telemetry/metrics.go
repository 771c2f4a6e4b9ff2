// Package telemetry provides OpenTelemetry metrics for tool execution and
// image compaction.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/imagereader/imagereader-mcp/domain/image"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	toolExecutions metric.Int64Counter
	compactions    metric.Int64Counter
	errors         metric.Int64Counter

	// Histograms
	toolDuration       metric.Float64Histogram
	compactionDuration metric.Float64Histogram
	inputBytes         metric.Int64Histogram
	outputBytes        metric.Int64Histogram
	iterations         metric.Int64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeExecutions metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global provider.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/imagereader/imagereader-mcp",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}
	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(config.MeterName, metric.WithInstrumentationVersion(config.MeterVersion)),
	}
	mp.initErr = mp.initInstruments()
	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.toolExecutions, err = mp.meter.Int64Counter(
		"imagereader.tool.executions",
		metric.WithDescription("Number of tool executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	mp.compactions, err = mp.meter.Int64Counter(
		"imagereader.compactions",
		metric.WithDescription("Number of image compactions"),
		metric.WithUnit("{compaction}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"imagereader.errors",
		metric.WithDescription("Number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.toolDuration, err = mp.meter.Float64Histogram(
		"imagereader.tool.duration",
		metric.WithDescription("Duration of tool executions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.compactionDuration, err = mp.meter.Float64Histogram(
		"imagereader.compaction.duration",
		metric.WithDescription("Duration of image compactions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.inputBytes, err = mp.meter.Int64Histogram(
		"imagereader.compaction.input_bytes",
		metric.WithDescription("Size of images read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	mp.outputBytes, err = mp.meter.Int64Histogram(
		"imagereader.compaction.output_bytes",
		metric.WithDescription("Size of images returned"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	mp.iterations, err = mp.meter.Int64Histogram(
		"imagereader.compaction.iterations",
		metric.WithDescription("Encodes performed per compaction"),
		metric.WithUnit("{encode}"),
	)
	if err != nil {
		return err
	}

	mp.activeExecutions, err = mp.meter.Int64UpDownCounter(
		"imagereader.executions.active",
		metric.WithDescription("Number of tool executions in flight"),
		metric.WithUnit("{execution}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordToolExecution records a tool execution. isError marks a failure
// envelope returned to the client; success is false only when the
// execution itself failed.
func (mp *MetricsProvider) RecordToolExecution(ctx context.Context, toolName string, success, isError bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tool.name", toolName),
		attribute.Bool("success", success),
		attribute.Bool("tool.is_error", isError),
	)

	mp.toolExecutions.Add(ctx, 1, attrs)
	mp.toolDuration.Record(ctx, float64(duration.Milliseconds()), attrs)

	if !success {
		mp.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", "tool_execution"),
			attribute.String("tool.name", toolName),
		))
	}
}

// RecordCompaction records a finished compaction.
func (mp *MetricsProvider) RecordCompaction(ctx context.Context, result image.CompactionResult, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("image.format", result.Format.String()),
		attribute.Bool("image.resized", result.Resized),
		attribute.Bool("image.unchanged", result.Unchanged),
		attribute.Bool("image.met_threshold", result.MetThreshold),
	)

	mp.compactions.Add(ctx, 1, attrs)
	mp.compactionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	mp.inputBytes.Record(ctx, int64(result.InputBytes), attrs)
	mp.outputBytes.Record(ctx, int64(result.Size()), attrs)
	mp.iterations.Record(ctx, int64(result.Iterations), attrs)
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.type", errorType),
	}
	for k, v := range details {
		attrs = append(attrs, attribute.String(k, v))
	}

	mp.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// IncrementActive increments the in-flight executions gauge.
func (mp *MetricsProvider) IncrementActive(ctx context.Context) {
	mp.activeExecutions.Add(ctx, 1)
}

// DecrementActive decrements the in-flight executions gauge.
func (mp *MetricsProvider) DecrementActive(ctx context.Context) {
	mp.activeExecutions.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordToolExecution is a no-op.
func (n *NoopMetricsProvider) RecordToolExecution(context.Context, string, bool, bool, time.Duration) {}

// RecordCompaction is a no-op.
func (n *NoopMetricsProvider) RecordCompaction(context.Context, image.CompactionResult, time.Duration) {
}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(context.Context, string, map[string]string) {}

// IncrementActive is a no-op.
func (n *NoopMetricsProvider) IncrementActive(context.Context) {}

// DecrementActive is a no-op.
func (n *NoopMetricsProvider) DecrementActive(context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordToolExecution(ctx context.Context, toolName string, success, isError bool, duration time.Duration)
	RecordCompaction(ctx context.Context, result image.CompactionResult, duration time.Duration)
	RecordError(ctx context.Context, errorType string, details map[string]string)
	IncrementActive(ctx context.Context)
	DecrementActive(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
