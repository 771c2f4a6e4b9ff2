// Package middleware provides composable middleware for tool execution.
package middleware

import (
	"context"
	"encoding/json"

	"github.com/imagereader/imagereader-mcp/domain/tool"
)

// ExecutionContext contains all information needed for middleware decisions.
type ExecutionContext struct {
	// RequestID identifies a single tool call across log lines and spans.
	RequestID string
	// Transport is the transport the call arrived on (stdio, http, cli).
	Transport string
	// Tool is the tool being executed.
	Tool tool.Tool
	// Input is the JSON input for the tool.
	Input json.RawMessage
}

// Handler executes a tool and returns its result.
type Handler func(ctx context.Context, execCtx *ExecutionContext) (tool.Result, error)

// Middleware wraps a Handler with additional behavior.
type Middleware func(next Handler) Handler

// Chain composes multiple middleware into a single middleware.
// Chain(A, B, C) produces: A -> B -> C -> handler
func Chain(middlewares ...Middleware) Middleware {
	return func(final Handler) Handler {
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Noop returns a middleware that passes through.
func Noop() Middleware {
	return func(next Handler) Handler {
		return next
	}
}

// Execute is the terminal handler: it runs the tool itself.
func Execute(ctx context.Context, execCtx *ExecutionContext) (tool.Result, error) {
	return execCtx.Tool.Execute(ctx, execCtx.Input)
}
