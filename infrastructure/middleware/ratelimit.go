package middleware

import (
	"context"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
)

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	// Rate is tokens added per second.
	Rate int
	// Burst is the bucket capacity.
	Burst int
	// PerTool keys the bucket by tool name instead of one global bucket.
	PerTool bool
}

// RateLimit returns middleware that rejects calls once the token bucket is empty.
func RateLimit(cfg RateLimitConfig) middleware.Middleware {
	rate := cfg.Rate
	if rate <= 0 {
		rate = 100
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = rate
	}
	limiter := ratelimit.New(&ratelimit.Config{
		Rate:  rate,
		Burst: burst,
	})

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			key := "global"
			if cfg.PerTool {
				key = execCtx.Tool.Name()
			}

			if !limiter.Allow(ctx, key) {
				logging.Warn().
					Add(logging.RequestID(execCtx.RequestID)).
					Add(logging.ToolName(execCtx.Tool.Name())).
					Add(logging.Str("key", key)).
					Msg("rate limit exceeded")
				return tool.Result{}, tool.ErrRateLimited
			}

			return next(ctx, execCtx)
		}
	}
}
