package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	imagepack "github.com/imagereader/imagereader-mcp/pack/image"
)

// compactOptions holds options for the compact command.
type compactOptions struct {
	configPath  string
	outputPath  string
	jsonOutput  bool
	preservePNG bool
	maxBytes    int
}

// newCompactCmd creates the compact command.
func (a *App) newCompactCmd() *cobra.Command {
	opts := &compactOptions{}

	cmd := &cobra.Command{
		Use:   "compact <path>",
		Short: "Run read_image locally on one file",
		Long: `Run the read_image tool on a local file through the same pipeline the
server uses. Relative paths are resolved against the working directory.

Examples:
  # Print a summary of what the tool would return
  imagereader compact photo.jpg

  # Print the MCP response envelope
  imagereader compact photo.jpg --json

  # Write the compacted image to a file
  imagereader compact screenshot.png -o small.jpg

  # Keep PNG output and shrink dimensions instead
  imagereader compact screenshot.png --preserve-png -o small.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compact(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the compacted image to this file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the response envelope as JSON")
	cmd.Flags().BoolVar(&opts.preservePNG, "preserve-png", false, "Keep PNG inputs as PNG (overrides config)")
	cmd.Flags().IntVar(&opts.maxBytes, "max-bytes", 0, "Output byte budget (overrides config)")

	return cmd
}

// compact runs read_image on path and reports the result.
func (a *App) compact(ctx context.Context, path string, opts *compactOptions) error {
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}
	if opts.preservePNG {
		cfg.Compaction.PreservePNG = true
	}
	if opts.maxBytes > 0 {
		cfg.Compaction.MaxBytes = opts.maxBytes
	}
	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	rt, err := a.buildRuntime(cfg, "cli")
	if err != nil {
		return err
	}
	defer func() { _ = rt.close() }()

	input, err := json.Marshal(map[string]string{"imagePath": abs})
	if err != nil {
		return err
	}

	result, err := rt.call(ctx, imagepack.ToolName, input)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(a.stdout, string(out))
	}
	if result.IsError {
		return errors.New(result.Text())
	}

	img, ok := result.Image()
	if !ok {
		return fmt.Errorf("%s returned no image", imagepack.ToolName)
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	if opts.outputPath != "" {
		if err := os.WriteFile(opts.outputPath, data, 0o600); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
	}

	if !opts.jsonOutput {
		fmt.Fprintf(a.stdout, "%s: %d bytes, %s\n", abs, len(data), img.MIMEType)
		if opts.outputPath != "" {
			fmt.Fprintf(a.stdout, "Wrote %s\n", opts.outputPath)
		}
	}
	return nil
}
