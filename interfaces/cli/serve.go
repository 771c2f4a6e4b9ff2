package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
	"github.com/imagereader/imagereader-mcp/infrastructure/config"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
)

// serveOptions holds options for the serve command.
type serveOptions struct {
	configPath string
	transport  string
	addr       string
	watch      bool
	logLevel   string
	logFormat  string
	strictEnv  bool
}

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server exposing the read_image tool.

Command-line flags override values from the configuration file.

Examples:
  # Serve over stdio with default budgets
  imagereader serve

  # Serve with a configuration file and reload it on change
  imagereader serve -c imagereader.yaml --watch

  # Serve over streamable HTTP
  imagereader serve --transport http --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.transport, "transport", "", "Transport: stdio or http (overrides config)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address for the http transport (overrides config)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload the configuration file when it changes")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "Log format: json or console (overrides config)")
	cmd.Flags().BoolVar(&opts.strictEnv, "strict", false, "Fail on unset environment variables in the configuration")

	return cmd
}

// applyOverrides copies non-empty flags onto cfg.
func (o *serveOptions) applyOverrides(cfg *domainconfig.ServerConfig) {
	if o.transport != "" {
		cfg.Transport = o.transport
	}
	if o.addr != "" {
		cfg.Address = o.addr
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
}

// serve runs the server until ctx is cancelled or the transport stops.
func (a *App) serve(ctx context.Context, opts *serveOptions) error {
	if opts.watch && opts.configPath == "" {
		return fmt.Errorf("--watch requires a configuration file (-c flag)")
	}

	cfg, err := loadConfig(opts.configPath, opts.strictEnv)
	if err != nil {
		return err
	}
	opts.applyOverrides(cfg)
	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rt, err := a.buildRuntime(cfg, cfg.Transport)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.close(); err != nil {
			logging.Error().Add(logging.ErrorField(err)).Msg("shutdown failed")
		}
	}()

	logging.Info().
		Add(logging.Component("cli")).
		Add(logging.Str("name", cfg.Name)).
		Add(logging.Str("version", cfg.Version)).
		Add(logging.Str("transport", cfg.Transport)).
		Msg("starting server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if opts.watch {
		loader := config.NewLoader(config.WithValidation(true), config.WithStrictEnv(opts.strictEnv))
		watcher := config.NewWatcher(opts.configPath, loader, rt.live,
			config.WithReloadHook(func(next *domainconfig.ServerConfig) {
				if opts.logLevel == "" {
					logging.SetLevel(next.Logging.Level)
				}
			}),
		)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	g.Go(func() error {
		// The transport ending stops the watcher too.
		defer cancel()
		if cfg.Transport == domainconfig.TransportHTTP {
			return rt.server.ServeHTTP(ctx, cfg.Address)
		}
		return rt.server.ServeStdio(ctx, a.stdin, a.stdout)
	})

	return g.Wait()
}
