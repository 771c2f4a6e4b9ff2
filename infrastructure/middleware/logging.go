package middleware

import (
	"context"
	"time"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
)

// LoggingConfig configures the logging middleware.
type LoggingConfig struct {
	// LogInput logs the tool input. Inputs are file paths, which may be sensitive.
	LogInput bool
}

// Logging returns middleware that logs tool execution.
func Logging(cfg LoggingConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()

			entry := logging.Debug().
				Add(logging.RequestID(execCtx.RequestID)).
				Add(logging.ToolName(execCtx.Tool.Name())).
				Add(logging.Str("transport", execCtx.Transport))
			if cfg.LogInput && len(execCtx.Input) > 0 {
				entry = entry.Add(logging.Str("input", string(execCtx.Input)))
			}
			entry.Msg("executing tool")

			result, err := next(ctx, execCtx)
			duration := time.Since(start)

			switch {
			case err != nil:
				logging.Error().
					Add(logging.RequestID(execCtx.RequestID)).
					Add(logging.ToolName(execCtx.Tool.Name())).
					Add(logging.ErrorField(err)).
					Add(logging.Duration(duration)).
					Msg("tool execution failed")
			case result.IsError:
				logging.Warn().
					Add(logging.RequestID(execCtx.RequestID)).
					Add(logging.ToolName(execCtx.Tool.Name())).
					Add(logging.Str("message", result.Text())).
					Add(logging.Duration(duration)).
					Msg("tool returned error")
			default:
				logging.Info().
					Add(logging.RequestID(execCtx.RequestID)).
					Add(logging.ToolName(execCtx.Tool.Name())).
					Add(logging.Duration(duration)).
					Msg("tool executed")
			}

			return result, err
		}
	}
}
