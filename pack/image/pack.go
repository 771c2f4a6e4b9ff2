// Package image provides the read_image tool.
package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imagereader/imagereader-mcp/application"
	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
	domainimage "github.com/imagereader/imagereader-mcp/domain/image"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
	"github.com/imagereader/imagereader-mcp/infrastructure/middleware"
)

// ToolName is the name the tool is published under.
const ToolName = "read_image"

const (
	toolDescription = "Reads an image file from the specified path and returns it as Base64-encoded JPEG or PNG data"
	pathDescription = "The absolute or relative path to the image file (e.g., '/path/to/image.jpg')"
	errorPrefix     = "Error sending image: "
)

// Limits reports the current input size cap. It is read on every call so a
// reloaded configuration applies to the next request.
type Limits interface {
	MaxInputBytes() int64
}

type fixedLimit int64

func (l fixedLimit) MaxInputBytes() int64 { return int64(l) }

// PackConfig configures the read_image tool.
type PackConfig struct {
	// Compactor shrinks images to the configured budget. Required.
	Compactor *application.Compactor

	// Limits caps the size of files read from disk.
	Limits Limits

	// HomeDir returns the directory relative paths are resolved against.
	// Defaults to os.UserHomeDir.
	HomeDir func() (string, error)
}

// DefaultPackConfig returns default pack configuration without a compactor.
func DefaultPackConfig() PackConfig {
	return PackConfig{
		Limits: fixedLimit(domainconfig.DefaultMaxInputBytes),
	}
}

// New creates the read_image tool.
func New(cfg PackConfig) (tool.Tool, error) {
	if cfg.Compactor == nil {
		return nil, ErrCompactorNotConfigured
	}
	if cfg.Limits == nil {
		cfg.Limits = fixedLimit(domainconfig.DefaultMaxInputBytes)
	}

	h := &handler{
		compactor: cfg.Compactor,
		limits:    cfg.Limits,
		resolver:  NewResolver(cfg.HomeDir),
	}

	return tool.NewBuilder(ToolName).
		WithDescription(toolDescription).
		WithTitle("Read image").
		WithInputSchema(tool.ObjectSchema(map[string]tool.Property{
			"imagePath": {Type: "string", Description: pathDescription},
		}, []string{"imagePath"})).
		WithTags("image", "filesystem").
		ReadOnly().
		Idempotent().
		WithHandler(h.handle).
		Build()
}

// ErrCompactorNotConfigured indicates New was called without a compactor.
var ErrCompactorNotConfigured = errors.New("image compactor not configured")

type handler struct {
	compactor *application.Compactor
	limits    Limits
	resolver  *Resolver
}

// handle never returns an error: every failure becomes an error envelope.
func (h *handler) handle(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	start := time.Now()

	result, path, err := h.read(ctx, input)
	if err != nil {
		logging.Warn().
			Add(logging.RequestID(middleware.RequestIDFromContext(ctx))).
			Add(logging.Path(path)).
			Add(logging.ErrorField(err)).
			Msg("read_image failed")
		return tool.NewErrorResult(errorPrefix + err.Error()), nil
	}

	logging.Info().
		Add(logging.RequestID(middleware.RequestIDFromContext(ctx))).
		Add(logging.Path(path)).
		Add(logging.Bytes("input_bytes", result.InputBytes)).
		Add(logging.Bytes("output_bytes", result.Size())).
		Add(logging.Dimensions(result.Width, result.Height)).
		Add(logging.Format(result.MIMEType)).
		Add(logging.Bool("met_threshold", result.MetThreshold)).
		Add(logging.Duration(time.Since(start))).
		Msg("read_image")

	return tool.NewImageResult(base64.StdEncoding.EncodeToString(result.Data), result.MIMEType), nil
}

func (h *handler) read(ctx context.Context, input json.RawMessage) (domainimage.CompactionResult, string, error) {
	raw, err := parsePath(input)
	if err != nil {
		return domainimage.CompactionResult{}, "", err
	}

	path, err := h.resolver.Resolve(raw)
	if err != nil {
		return domainimage.CompactionResult{}, raw, err
	}

	data, err := ReadFile(path, h.limits.MaxInputBytes())
	if err != nil {
		return domainimage.CompactionResult{}, path, err
	}

	result, err := h.compactor.Compact(ctx, data)
	if err != nil {
		return domainimage.CompactionResult{}, path, err
	}
	return result, path, nil
}

// parsePath extracts imagePath, rejecting missing, empty and non-string values.
func parsePath(input json.RawMessage) (string, error) {
	var args map[string]json.RawMessage
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("%w: arguments must be an object", domainimage.ErrPathResolution)
		}
	}

	value, ok := args["imagePath"]
	if !ok {
		return "", fmt.Errorf("%w: imagePath is required", domainimage.ErrPathResolution)
	}

	var path string
	if err := json.Unmarshal(value, &path); err != nil {
		return "", fmt.Errorf("%w: imagePath must be a string", domainimage.ErrPathResolution)
	}
	if path == "" {
		return "", fmt.Errorf("%w: imagePath is empty", domainimage.ErrPathResolution)
	}
	return path, nil
}
