package image

import "fmt"

// DefaultMaxInputPixels caps how many pixels an input may declare before it
// is decoded. A decoded raster costs up to 4 bytes per pixel, so the default
// bounds one decode at 256 MiB.
const DefaultMaxInputPixels int64 = 64 << 20

// DefaultPNGCompressionLevel is the zlib level used when none is configured.
const DefaultPNGCompressionLevel = 9

// CompactionConfig holds the size and dimension budget.
// A value is shared read-only by every request.
type CompactionConfig struct {
	// MaxBytes is the byte budget for the output buffer.
	MaxBytes int `json:"max_bytes" yaml:"max_bytes"`
	// MaxDimension is the bounding box side in pixels.
	MaxDimension int `json:"max_dimension" yaml:"max_dimension"`
	// MinDimension is the floor for the dimension-reduction loop.
	MinDimension int `json:"min_dimension" yaml:"min_dimension"`
	// InitialQuality is the first JPEG quality tried.
	InitialQuality int `json:"initial_quality" yaml:"initial_quality"`
	// QualityStep is subtracted from the quality on every iteration.
	QualityStep int `json:"quality_step" yaml:"quality_step"`
	// QualityFloor stops the quality-reduction loop.
	QualityFloor int `json:"quality_floor" yaml:"quality_floor"`
	// ScaleFactor shrinks both dimensions on every dimension-loop iteration.
	ScaleFactor float64 `json:"scale_factor" yaml:"scale_factor"`
	// PreservePNG keeps PNG inputs as PNG and shrinks them instead of converting to JPEG.
	PreservePNG bool `json:"preserve_png" yaml:"preserve_png"`
	// PNGCompressionLevel is the zlib level (0-9) used for PNG output. Nil
	// selects DefaultPNGCompressionLevel; 0 stores PNG data uncompressed.
	PNGCompressionLevel *int `json:"png_compression_level,omitempty" yaml:"png_compression_level,omitempty"`
}

// DefaultCompactionConfig returns the standard budget: 1 MiB, 1280px.
func DefaultCompactionConfig() CompactionConfig {
	return CompactionConfig{
		MaxBytes:            1024 * 1024,
		MaxDimension:        1280,
		MinDimension:        100,
		InitialQuality:      80,
		QualityStep:         10,
		QualityFloor:        10,
		ScaleFactor:         0.9,
		PreservePNG:         false,
		PNGCompressionLevel: PNGLevel(DefaultPNGCompressionLevel),
	}
}

// WithDefaults fills zero fields from DefaultCompactionConfig.
func (c CompactionConfig) WithDefaults() CompactionConfig {
	d := DefaultCompactionConfig()
	if c.MaxBytes == 0 {
		c.MaxBytes = d.MaxBytes
	}
	if c.MaxDimension == 0 {
		c.MaxDimension = d.MaxDimension
	}
	if c.MinDimension == 0 {
		c.MinDimension = d.MinDimension
	}
	if c.InitialQuality == 0 {
		c.InitialQuality = d.InitialQuality
	}
	if c.QualityStep == 0 {
		c.QualityStep = d.QualityStep
	}
	if c.QualityFloor == 0 {
		c.QualityFloor = d.QualityFloor
	}
	if c.ScaleFactor == 0 {
		c.ScaleFactor = d.ScaleFactor
	}
	if c.PNGCompressionLevel == nil {
		c.PNGCompressionLevel = d.PNGCompressionLevel
	}
	return c
}

// Validate checks that every loop in the compactor terminates.
func (c CompactionConfig) Validate() error {
	switch {
	case c.MaxBytes <= 0:
		return fmt.Errorf("%w: max_bytes must be positive", ErrInvalidConfig)
	case c.MaxDimension <= 0:
		return fmt.Errorf("%w: max_dimension must be positive", ErrInvalidConfig)
	case c.MinDimension <= 0 || c.MinDimension >= c.MaxDimension:
		return fmt.Errorf("%w: min_dimension must be in (0, max_dimension)", ErrInvalidConfig)
	case c.InitialQuality < 1 || c.InitialQuality > 100:
		return fmt.Errorf("%w: initial_quality must be in [1, 100]", ErrInvalidConfig)
	case c.QualityStep <= 0:
		return fmt.Errorf("%w: quality_step must be positive", ErrInvalidConfig)
	case c.QualityFloor < 1 || c.QualityFloor > c.InitialQuality:
		return fmt.Errorf("%w: quality_floor must be in [1, initial_quality]", ErrInvalidConfig)
	case c.ScaleFactor <= 0 || c.ScaleFactor >= 1:
		return fmt.Errorf("%w: scale_factor must be in (0, 1)", ErrInvalidConfig)
	case c.PNGCompressionLevel != nil && (*c.PNGCompressionLevel < 0 || *c.PNGCompressionLevel > 9):
		return fmt.Errorf("%w: png_compression_level must be in [0, 9]", ErrInvalidConfig)
	}
	return nil
}

// PNGLevel returns a pointer to level for PNGCompressionLevel.
func PNGLevel(level int) *int {
	return &level
}

// PNGCompression returns the configured zlib level, or the default when unset.
func (c CompactionConfig) PNGCompression() int {
	if c.PNGCompressionLevel == nil {
		return DefaultPNGCompressionLevel
	}
	return *c.PNGCompressionLevel
}

// MaxQualitySteps returns the upper bound on quality-loop iterations.
func (c CompactionConfig) MaxQualitySteps() int {
	span := c.InitialQuality - c.QualityFloor
	if span <= 0 {
		return 0
	}
	return (span + c.QualityStep - 1) / c.QualityStep
}
