// Package application provides the application layer for image compaction.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imagereader/imagereader-mcp/domain/image"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
)

// ConfigSource supplies the compaction budget. Each Compact call reads it
// once, so a reload never changes the budget mid-request.
type ConfigSource interface {
	Compaction() image.CompactionConfig
}

// StaticConfig is a ConfigSource that never changes.
type StaticConfig image.CompactionConfig

// Compaction returns the config.
func (s StaticConfig) Compaction() image.CompactionConfig {
	return image.CompactionConfig(s)
}

// InputLimits bounds what the compactor agrees to decode. It is read once
// per call.
type InputLimits interface {
	MaxInputPixels() int64
}

// PixelLimit is a fixed InputLimits.
type PixelLimit int64

// MaxInputPixels returns the limit.
func (l PixelLimit) MaxInputPixels() int64 {
	return int64(l)
}

// CompactionRecorder observes finished compactions.
type CompactionRecorder interface {
	RecordCompaction(ctx context.Context, result image.CompactionResult, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordCompaction(context.Context, image.CompactionResult, time.Duration) {}

// Compactor drives an image.Codec until a buffer fits the size and dimension budget.
type Compactor struct {
	codec    image.Codec
	source   ConfigSource
	limits   InputLimits
	recorder CompactionRecorder
}

// CompactorConfig contains configuration for the compactor.
type CompactorConfig struct {
	Codec    image.Codec
	Source   ConfigSource
	Limits   InputLimits
	Recorder CompactionRecorder
}

// NewCompactor creates a compactor with the given options.
func NewCompactor(opts ...Option) (*Compactor, error) {
	config := CompactorConfig{
		Source: StaticConfig(image.DefaultCompactionConfig()),
		Limits: PixelLimit(image.DefaultMaxInputPixels),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if config.Codec == nil {
		return nil, errors.New("codec is required")
	}
	if err := config.Source.Compaction().Validate(); err != nil {
		return nil, err
	}
	if config.Recorder == nil {
		config.Recorder = noopRecorder{}
	}

	return &Compactor{
		codec:    config.Codec,
		source:   config.Source,
		limits:   config.Limits,
		recorder: config.Recorder,
	}, nil
}

// Compact returns a buffer satisfying the budget, or the smallest buffer it
// could produce when the budget is unreachable (MetThreshold is false then).
// It fails when the input declares more pixels than the limit, when decoding
// or encoding fails, or when ctx is done.
func (c *Compactor) Compact(ctx context.Context, data []byte) (image.CompactionResult, error) {
	start := time.Now()
	cfg := c.source.Compaction()

	result, err := c.compact(ctx, cfg, data)
	duration := time.Since(start)
	if err != nil {
		logging.Debug().
			Add(logging.Component("compactor")).
			Add(logging.Bytes("input_bytes", len(data))).
			Add(logging.ErrorField(err)).
			Msg("compaction failed")
		return image.CompactionResult{}, err
	}

	result.InputBytes = len(data)
	c.recorder.RecordCompaction(ctx, result, duration)

	logging.Debug().
		Add(logging.Component("compactor")).
		Add(logging.Bytes("input_bytes", len(data))).
		Add(logging.Bytes("output_bytes", result.Size())).
		Add(logging.Dimensions(result.Width, result.Height)).
		Add(logging.Format(result.Format.String())).
		Add(logging.Quality(result.Quality)).
		Add(logging.Iterations(result.Iterations)).
		Add(logging.Bool("met_threshold", result.MetThreshold)).
		Add(logging.Duration(duration)).
		Msg("image compacted")

	return result, nil
}

func (c *Compactor) compact(ctx context.Context, cfg image.CompactionConfig, data []byte) (image.CompactionResult, error) {
	meta, err := c.codec.Probe(data)
	if err != nil {
		return image.CompactionResult{}, err
	}
	if limit := c.limits.MaxInputPixels(); limit > 0 && meta.Pixels() > limit {
		return image.CompactionResult{}, fmt.Errorf("%w: %dx%d is %d pixels, limit is %d",
			image.ErrInputTooLarge, meta.Width, meta.Height, meta.Pixels(), limit)
	}

	if meta.Format.IsPassthrough() && !meta.Exceeds(cfg.MaxDimension) && len(data) <= cfg.MaxBytes {
		return image.CompactionResult{
			Data:         data,
			MIMEType:     meta.Format.MIMEType(),
			Format:       meta.Format,
			Width:        meta.Width,
			Height:       meta.Height,
			Unchanged:    true,
			MetThreshold: true,
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return image.CompactionResult{}, err
	}

	img, err := c.codec.Decode(data)
	if err != nil {
		return image.CompactionResult{}, err
	}

	resized := false
	if b := img.Bounds(); b.Dx() > cfg.MaxDimension || b.Dy() > cfg.MaxDimension {
		img = c.codec.Resize(img, cfg.MaxDimension, cfg.MaxDimension)
		resized = true
	}

	var result image.CompactionResult
	switch outputFormat(meta, cfg) {
	case image.FormatPNG:
		result, err = c.shrinkDimensions(ctx, cfg, img)
	default:
		result, err = c.reduceQuality(ctx, cfg, img)
	}
	if err != nil {
		return image.CompactionResult{}, fmt.Errorf("compact %s image: %w", meta.Decoder, err)
	}

	result.Resized = result.Resized || resized
	return result, nil
}

// outputFormat picks the encoding from the sniffed format, never the file name.
// PNG has no quality lever, so it is converted to JPEG unless PreservePNG is set.
func outputFormat(meta image.Metadata, cfg image.CompactionConfig) image.Format {
	if meta.Format == image.FormatPNG && cfg.PreservePNG {
		return image.FormatPNG
	}
	return image.FormatJPEG
}
