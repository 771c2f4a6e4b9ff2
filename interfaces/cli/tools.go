package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imagereader/imagereader-mcp/domain/config"
)

// toolsOptions holds options for the tools command.
type toolsOptions struct {
	configPath string
	verbose    bool
}

// newToolsCmd creates the tools command.
func (a *App) newToolsCmd() *cobra.Command {
	opts := &toolsOptions{}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		Long: `List the tools the server registers, with their input schema in
verbose mode.

Examples:
  imagereader tools
  imagereader tools -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTools(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show input schemas")

	return cmd
}

// listTools prints the registered tools.
func (a *App) listTools(opts *toolsOptions) error {
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}
	// Keep info-level startup lines out of the listing.
	quiet := *cfg
	quiet.Logging = config.LoggingConfig{Level: "error", Format: cfg.Logging.Format}

	rt, err := a.buildRuntime(&quiet, "cli")
	if err != nil {
		return err
	}
	defer func() { _ = rt.close() }()

	tools := rt.server.Registry().List()
	_, _ = fmt.Fprintf(a.stdout, "Tools (%d):\n", len(tools))
	for _, t := range tools {
		_, _ = fmt.Fprintf(a.stdout, "  %s\n", t.Name())
		if !opts.verbose {
			continue
		}
		_, _ = fmt.Fprintf(a.stdout, "    %s\n", t.Description())
		if ann := t.Annotations(); ann.ReadOnly {
			_, _ = fmt.Fprintf(a.stdout, "    read-only\n")
		}
		schema, err := json.MarshalIndent(json.RawMessage(t.InputSchema().Raw()), "    ", "  ")
		if err != nil {
			return fmt.Errorf("format schema for %s: %w", t.Name(), err)
		}
		_, _ = fmt.Fprintf(a.stdout, "    Input: %s\n", strings.TrimSpace(string(schema)))
	}
	return nil
}
