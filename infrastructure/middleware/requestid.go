// Package middleware provides the tool execution middleware used by every transport.
package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID returns middleware that assigns a UUID to calls without one
// and stores it on the context for downstream log lines.
func RequestID() middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			if execCtx.RequestID == "" {
				execCtx.RequestID = RequestIDFromContext(ctx)
			}
			if execCtx.RequestID == "" {
				execCtx.RequestID = uuid.NewString()
			}
			return next(WithRequestID(ctx, execCtx.RequestID), execCtx)
		}
	}
}
