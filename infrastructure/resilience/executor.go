// Package resilience bounds tool execution with fortify.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"

	"github.com/imagereader/imagereader-mcp/domain/tool"
)

// ErrBusy indicates the bulkhead refused the call.
var ErrBusy = errors.New("server busy")

// Executor runs tools inside a bulkhead with a per-call timeout. Calls are
// never retried: a failed read or decode would fail the same way again.
type Executor struct {
	bulkhead bulkhead.Bulkhead[tool.Result]
	timeout  time.Duration
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent tool executions, which bounds decode memory.
	MaxConcurrent int

	// Timeout is the per-call execution timeout. Zero disables it.
	Timeout time.Duration
}

// DefaultExecutorConfig returns a configuration with the default limits.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent: 4,
		Timeout:       30 * time.Second,
	}
}

// NewExecutor creates a new executor.
func NewExecutor(config ExecutorConfig) *Executor {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultExecutorConfig().MaxConcurrent
	}

	return &Executor{
		bulkhead: bulkhead.New[tool.Result](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		timeout: config.Timeout,
	}
}

// Execute runs t inside the bulkhead and the timeout.
func (e *Executor) Execute(ctx context.Context, t tool.Tool, input json.RawMessage) (tool.Result, error) {
	start := time.Now()
	admitted := false

	result, err := e.bulkhead.Execute(ctx, func(ctx context.Context) (tool.Result, error) {
		admitted = true
		if e.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}

		result, err := t.Execute(ctx, input)
		if errors.Is(err, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: %s after %s", tool.ErrExecutionTimeout, t.Name(), e.timeout)
		}
		return result, err
	})

	if err != nil && !admitted && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return tool.Result{}, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	if err == nil {
		result.Duration = time.Since(start)
	}
	return result, err
}
