package application

import (
	"context"
	stdimage "image"

	"github.com/imagereader/imagereader-mcp/domain/image"
)

// attempt is one encoded candidate.
type attempt struct {
	data          []byte
	level         int
	width, height int
}

// keep returns the smaller of a and b, preferring a on ties.
func keep(a, b attempt) attempt {
	if len(b.data) < len(a.data) {
		return b
	}
	return a
}

// qualityState is a point in the quality-reduction loop.
type qualityState struct {
	quality int
	last    attempt
	best    attempt
	encodes int
}

// reduceQuality encodes img as JPEG at the initial quality and lowers the
// quality step by step until the buffer fits or the floor is reached.
func (c *Compactor) reduceQuality(ctx context.Context, cfg image.CompactionConfig, img stdimage.Image) (image.CompactionResult, error) {
	first, err := c.encodeAt(img, image.FormatJPEG, cfg.InitialQuality)
	if err != nil {
		return image.CompactionResult{}, err
	}
	st := qualityState{quality: cfg.InitialQuality, last: first, best: first, encodes: 1}

	for len(st.last.data) > cfg.MaxBytes && st.quality > cfg.QualityFloor {
		if err := ctx.Err(); err != nil {
			return image.CompactionResult{}, err
		}
		st, err = c.nextQuality(cfg, img, st)
		if err != nil {
			return image.CompactionResult{}, err
		}
	}

	return toResult(st.best, image.FormatJPEG, st.encodes, cfg), nil
}

// nextQuality re-encodes the bounded raster one quality step lower.
func (c *Compactor) nextQuality(cfg image.CompactionConfig, img stdimage.Image, st qualityState) (qualityState, error) {
	q := max(st.quality-cfg.QualityStep, 1)
	a, err := c.encodeAt(img, image.FormatJPEG, q)
	if err != nil {
		return st, err
	}
	return qualityState{
		quality: q,
		last:    a,
		best:    keep(st.best, a),
		encodes: st.encodes + 1,
	}, nil
}

// scaleState is a point in the dimension-reduction loop.
type scaleState struct {
	scale   float64
	last    attempt
	best    attempt
	encodes int
}

// shrinkDimensions encodes img as PNG and scales it down geometrically until
// the buffer fits or another step would cross MinDimension.
func (c *Compactor) shrinkDimensions(ctx context.Context, cfg image.CompactionConfig, img stdimage.Image) (image.CompactionResult, error) {
	first, err := c.encodeAt(img, image.FormatPNG, cfg.PNGCompression())
	if err != nil {
		return image.CompactionResult{}, err
	}
	st := scaleState{scale: 1, last: first, best: first, encodes: 1}

	for len(st.last.data) > cfg.MaxBytes {
		if err := ctx.Err(); err != nil {
			return image.CompactionResult{}, err
		}
		next, ok, err := c.nextScale(cfg, img, st)
		if err != nil {
			return image.CompactionResult{}, err
		}
		if !ok {
			break
		}
		st = next
	}

	result := toResult(st.best, image.FormatPNG, st.encodes, cfg)
	b := img.Bounds()
	result.Resized = result.Width < b.Dx() || result.Height < b.Dy()
	return result, nil
}

// nextScale resizes the bounded raster to the next scale. Each step starts
// from the same source raster, so resampling error does not accumulate.
// ok is false when either dimension would drop to MinDimension or below.
func (c *Compactor) nextScale(cfg image.CompactionConfig, img stdimage.Image, st scaleState) (scaleState, bool, error) {
	scale := st.scale * cfg.ScaleFactor
	b := img.Bounds()
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if w <= cfg.MinDimension || h <= cfg.MinDimension {
		return st, false, nil
	}

	a, err := c.encodeAt(c.codec.Resize(img, w, h), image.FormatPNG, cfg.PNGCompression())
	if err != nil {
		return st, false, err
	}
	return scaleState{
		scale:   scale,
		last:    a,
		best:    keep(st.best, a),
		encodes: st.encodes + 1,
	}, true, nil
}

func (c *Compactor) encodeAt(img stdimage.Image, format image.Format, level int) (attempt, error) {
	data, err := c.codec.Encode(img, format, level)
	if err != nil {
		return attempt{}, err
	}
	b := img.Bounds()
	return attempt{data: data, level: level, width: b.Dx(), height: b.Dy()}, nil
}

func toResult(a attempt, format image.Format, encodes int, cfg image.CompactionConfig) image.CompactionResult {
	return image.CompactionResult{
		Data:         a.data,
		MIMEType:     format.MIMEType(),
		Format:       format,
		Width:        a.width,
		Height:       a.height,
		Quality:      a.level,
		Iterations:   encodes,
		MetThreshold: len(a.data) <= cfg.MaxBytes,
	}
}
