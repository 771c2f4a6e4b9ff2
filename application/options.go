package application

import "github.com/imagereader/imagereader-mcp/domain/image"

// Option configures the compactor.
type Option func(*CompactorConfig)

// WithCodec sets the image codec.
func WithCodec(c image.Codec) Option {
	return func(cfg *CompactorConfig) {
		cfg.Codec = c
	}
}

// WithCompactionConfig sets a fixed budget.
func WithCompactionConfig(c image.CompactionConfig) Option {
	return func(cfg *CompactorConfig) {
		cfg.Source = StaticConfig(c)
	}
}

// WithConfigSource sets a budget that may change between requests.
func WithConfigSource(s ConfigSource) Option {
	return func(cfg *CompactorConfig) {
		if s != nil {
			cfg.Source = s
		}
	}
}

// WithInputLimits sets the pixel limit checked before decoding.
func WithInputLimits(l InputLimits) Option {
	return func(cfg *CompactorConfig) {
		if l != nil {
			cfg.Limits = l
		}
	}
}

// WithRecorder sets the compaction observer.
func WithRecorder(r CompactionRecorder) Option {
	return func(cfg *CompactorConfig) {
		cfg.Recorder = r
	}
}
