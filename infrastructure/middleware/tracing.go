package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
)

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	// TracerName is the name of the tracer to use.
	TracerName string

	// Tracer is a custom tracer to use. If nil, the global provider is used.
	Tracer trace.Tracer

	// RecordInput determines if tool input should be recorded as a span attribute.
	RecordInput bool

	// MaxAttributeSize limits the size of recorded attributes.
	MaxAttributeSize int

	// SpanNamePrefix is prepended to span names.
	SpanNamePrefix string
}

// DefaultTracingConfig returns the default configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName:       "imagereader",
		MaxAttributeSize: 1024,
		SpanNamePrefix:   "tool.",
	}
}

// Tracing returns middleware that creates an OpenTelemetry span per tool call.
func Tracing(cfg TracingConfig) middleware.Middleware {
	tracer := cfg.Tracer
	if tracer == nil {
		name := cfg.TracerName
		if name == "" {
			name = "imagereader"
		}
		tracer = otel.Tracer(name)
	}

	maxSize := cfg.MaxAttributeSize
	if maxSize <= 0 {
		maxSize = 1024
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			ctx, span := tracer.Start(ctx, cfg.SpanNamePrefix+execCtx.Tool.Name(),
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			annotations := execCtx.Tool.Annotations()
			span.SetAttributes(
				attribute.String("request.id", execCtx.RequestID),
				attribute.String("transport", execCtx.Transport),
				attribute.String("tool.name", execCtx.Tool.Name()),
				attribute.Bool("tool.read_only", annotations.ReadOnly),
				attribute.Bool("tool.idempotent", annotations.Idempotent),
			)
			if cfg.RecordInput && len(execCtx.Input) > 0 {
				span.SetAttributes(attribute.String("tool.input", truncate(string(execCtx.Input), maxSize)))
			}

			result, err := next(ctx, execCtx)

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case result.IsError:
				span.SetStatus(codes.Error, truncate(result.Text(), maxSize))
			default:
				span.SetStatus(codes.Ok, "")
			}
			span.SetAttributes(attribute.Bool("tool.is_error", err != nil || result.IsError))
			if img, ok := result.Image(); ok {
				span.SetAttributes(
					attribute.String("image.mime_type", img.MIMEType),
					attribute.Int("image.base64_length", len(img.Data)),
				)
			}

			return result, err
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
