package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/imagereader/imagereader-mcp/application"
	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/codec"
	"github.com/imagereader/imagereader-mcp/infrastructure/config"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
	"github.com/imagereader/imagereader-mcp/infrastructure/mcp"
	"github.com/imagereader/imagereader-mcp/infrastructure/middleware"
	"github.com/imagereader/imagereader-mcp/infrastructure/observability"
	"github.com/imagereader/imagereader-mcp/infrastructure/resilience"
	"github.com/imagereader/imagereader-mcp/infrastructure/security/audit"
	"github.com/imagereader/imagereader-mcp/infrastructure/storage/memory"
	"github.com/imagereader/imagereader-mcp/infrastructure/telemetry"
	imagepack "github.com/imagereader/imagereader-mcp/pack/image"
)

const tracerName = "github.com/imagereader/imagereader-mcp"

// shutdowner flushes and stops a telemetry pipeline.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// runtime holds everything a running server owns.
type runtime struct {
	live    *config.Live
	tracing shutdowner
	audit   audit.Logger
	server  *mcp.ImageServer
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string, strictEnv bool) (*domainconfig.ServerConfig, error) {
	if path == "" {
		cfg := domainconfig.Default()
		return &cfg, nil
	}

	loader := config.NewLoader(
		config.WithValidation(true),
		config.WithStrictEnv(strictEnv),
	)
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// validate re-checks cfg after command-line overrides.
func validate(cfg *domainconfig.ServerConfig) error {
	if errs := domainconfig.NewValidator().Validate(cfg); errs.HasErrors() {
		return errs
	}
	return nil
}

// buildRuntime wires the codec, compactor, tool, middleware and transport
// for cfg. Calls are labelled with transport.
func (a *App) buildRuntime(cfg *domainconfig.ServerConfig, transport string) (*runtime, error) {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})

	obsCfg := observability.FromServerConfig(cfg)
	obsCfg.Writer = a.stderr
	tracing, err := observability.New(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	metrics := telemetry.NewMetricsProvider(telemetry.MetricsConfig{
		MeterName:    tracerName,
		MeterVersion: cfg.Version,
	})
	if err := metrics.Error(); err != nil {
		return nil, fmt.Errorf("setup metrics: %w", err)
	}

	live := config.NewLive(cfg)

	codecOpts, err := codec.FromConfig(cfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("setup codec: %w", err)
	}

	compactor, err := application.NewCompactor(
		application.WithCodec(codec.New(codecOpts...)),
		application.WithConfigSource(live),
		application.WithInputLimits(live),
		application.WithRecorder(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("create compactor: %w", err)
	}

	readImage, err := imagepack.New(imagepack.PackConfig{
		Compactor: compactor,
		Limits:    live,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s tool: %w", imagepack.ToolName, err)
	}

	registry, err := memory.NewToolRegistry(readImage)
	if err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	trail, err := a.openAudit(cfg.Audit)
	if err != nil {
		return nil, err
	}

	stack := middleware.StackConfig{
		Metrics: metrics,
		Tracer:  tracing.Tracer(tracerName),
		Audit:   trail,
	}
	if rl := cfg.Resilience.RateLimit; rl.Enabled {
		stack.RateLimit = &middleware.RateLimitConfig{Rate: rl.Rate, Burst: rl.Burst, PerTool: rl.PerTool}
	}

	stages := middleware.Stack(stack)
	logging.Debug().
		Add(logging.Component("cli")).
		Add(logging.Str("middleware", stages.String())).
		Msg("middleware stack")

	server := mcp.NewImageServer(mcp.ServerConfig{
		Name:         cfg.Name,
		Version:      cfg.Version,
		Instructions: cfg.Instructions,
		Registry:     registry,
		Middleware:   stages.Chain(),
		Executor:     resilience.NewExecutorWithOptions(resilience.FromConfig(cfg.Resilience)),
		Transport:    transport,
	})

	return &runtime{
		live:    live,
		tracing: tracing,
		audit:   trail,
		server:  server,
	}, nil
}

// openAudit returns the audit logger for cfg, or nil when auditing is off.
func (a *App) openAudit(cfg domainconfig.AuditConfig) (audit.Logger, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var w io.Writer = nopCloser{a.stderr}
	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		w = f
	}
	return audit.NewJSONLogger(w), nil
}

// nopCloser keeps the audit logger from closing stderr.
type nopCloser struct{ io.Writer }

// call runs the named tool through the full middleware stack.
func (r *runtime) call(ctx context.Context, name string, input []byte) (tool.Result, error) {
	t, ok := r.server.Registry().Get(name)
	if !ok {
		return tool.Result{}, fmt.Errorf("%w: %s", tool.ErrToolNotFound, name)
	}
	return r.server.Call(ctx, t, input)
}

// close flushes the audit log and pending spans. Both run even when one fails.
func (r *runtime) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var auditErr, tracingErr error
	if r.audit != nil {
		if err := r.audit.Close(); err != nil {
			auditErr = fmt.Errorf("close audit log: %w", err)
		}
	}
	if r.tracing != nil {
		if err := r.tracing.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			tracingErr = fmt.Errorf("shutdown tracing: %w", err)
		}
	}
	return errors.Join(auditErr, tracingErr)
}
