package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
)

// ValidationConfig configures input validation.
type ValidationConfig struct {
	// CheckRequired rejects inputs missing a property the schema lists as
	// required. Off by default so tools can report missing arguments in
	// their own error envelope.
	CheckRequired bool
}

// Validation returns middleware that rejects input that is not a JSON object.
func Validation(cfg ValidationConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			if err := validateInput(execCtx.Tool, execCtx.Input, cfg.CheckRequired); err != nil {
				return tool.Result{}, fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)
			}
			return next(ctx, execCtx)
		}
	}
}

func validateInput(t tool.Tool, input json.RawMessage, checkRequired bool) error {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		if checkRequired {
			return requiredMissing(t, map[string]json.RawMessage{})
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("input must be a JSON object")
	}
	if checkRequired {
		return requiredMissing(t, fields)
	}
	return nil
}

func requiredMissing(t tool.Tool, fields map[string]json.RawMessage) error {
	var schema struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(t.InputSchema().Raw(), &schema); err != nil {
		return nil
	}
	for _, name := range schema.Required {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("missing required property %q", name)
		}
	}
	return nil
}
