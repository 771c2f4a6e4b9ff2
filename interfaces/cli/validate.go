package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imagereader/imagereader-mcp/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
	showSchema bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a server configuration file for correctness.

This command checks:
  - File format (YAML or JSON) and unknown keys
  - Transport and listen address
  - Compaction budgets and quality bounds
  - Logging, resilience and telemetry settings
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  imagereader validate -c imagereader.yaml

  # Strict validation (fail on missing env vars)
  imagereader validate -c imagereader.yaml --strict

  # Show the JSON schema for configuration
  imagereader validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := loadConfig(opts.configPath, opts.strict)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	c := cfg.Compaction
	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)
	fmt.Fprintf(a.stdout, "  Transport: %s\n", cfg.Transport)

	fmt.Fprintf(a.stdout, "\nCompaction:\n")
	fmt.Fprintf(a.stdout, "  Max bytes: %d\n", c.MaxBytes)
	fmt.Fprintf(a.stdout, "  Dimensions: %d-%dpx\n", c.MinDimension, c.MaxDimension)
	fmt.Fprintf(a.stdout, "  Quality: %d down to %d, step %d\n", c.InitialQuality, c.QualityFloor, c.QualityStep)
	fmt.Fprintf(a.stdout, "  Preserve PNG: %t\n", c.PreservePNG)
	fmt.Fprintf(a.stdout, "  Input limits: %d bytes, %d pixels\n", cfg.Limits.MaxInputBytes, cfg.Limits.MaxInputPixels)
	fmt.Fprintf(a.stdout, "  Codec: %s filter, %s background\n", cfg.Codec.ResamplingFilter, cfg.Codec.JPEGBackground)

	if cfg.Resilience.RateLimit.Enabled {
		fmt.Fprintf(a.stdout, "  Rate limiting: enabled (rate=%d, burst=%d, per_tool=%t)\n",
			cfg.Resilience.RateLimit.Rate, cfg.Resilience.RateLimit.Burst, cfg.Resilience.RateLimit.PerTool)
	}
	if cfg.Telemetry.Tracing.Enabled {
		fmt.Fprintf(a.stdout, "  Tracing: %s\n", cfg.Telemetry.Tracing.Exporter)
	}

	return nil
}

// showConfigSchema displays the JSON schema for configuration.
func (a *App) showConfigSchema() error {
	schemaJSON, err := config.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
