// Package codec implements image.Codec on top of disintegration/imaging.
package codec

import (
	"bytes"
	"fmt"
	stdimage "image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
	"github.com/imagereader/imagereader-mcp/domain/image"
)

// Imaging is an image.Codec backed by disintegration/imaging.
type Imaging struct {
	filter     imaging.ResampleFilter
	background color.Color
}

// Option configures the codec.
type Option func(*Imaging)

// WithFilter sets the resampling filter used by Resize.
func WithFilter(f imaging.ResampleFilter) Option {
	return func(c *Imaging) {
		c.filter = f
	}
}

// WithBackground sets the color transparent pixels are flattened onto for JPEG output.
func WithBackground(bg color.Color) Option {
	return func(c *Imaging) {
		c.background = bg
	}
}

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// FromConfig maps the codec section of the server configuration to options.
// Empty fields keep the defaults.
func FromConfig(cfg domainconfig.CodecConfig) ([]Option, error) {
	var opts []Option
	if cfg.ResamplingFilter != "" {
		f, ok := filters[strings.ToLower(cfg.ResamplingFilter)]
		if !ok {
			return nil, fmt.Errorf("unknown resampling filter %q", cfg.ResamplingFilter)
		}
		opts = append(opts, WithFilter(f))
	}
	if cfg.JPEGBackground != "" {
		bg, err := domainconfig.ParseHexColor(cfg.JPEGBackground)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBackground(bg))
	}
	return opts, nil
}

// New creates an imaging codec. Lanczos resampling and a white background are the defaults.
func New(opts ...Option) *Imaging {
	c := &Imaging{
		filter:     imaging.Lanczos,
		background: color.White,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe reads the image header.
func (c *Imaging) Probe(data []byte) (image.Metadata, error) {
	if len(data) == 0 {
		return image.Metadata{}, fmt.Errorf("%w: empty buffer", image.ErrDecode)
	}
	cfg, name, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Metadata{}, fmt.Errorf("%w: %v", image.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Metadata{}, fmt.Errorf("%w: invalid dimensions %dx%d", image.ErrDecode, cfg.Width, cfg.Height)
	}
	return image.Metadata{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Format:  image.ParseFormat(name),
		Decoder: name,
	}, nil
}

// Decode decodes the full raster, applying EXIF orientation.
func (c *Imaging) Decode(data []byte) (stdimage.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", image.ErrDecode, err)
	}
	return img, nil
}

// Resize fits img inside width x height without cropping or enlarging.
func (c *Imaging) Resize(img stdimage.Image, width, height int) stdimage.Image {
	b := img.Bounds()
	if b.Dx() <= width && b.Dy() <= height {
		return img
	}
	return imaging.Fit(img, width, height, c.filter)
}

// Encode encodes img as JPEG (level = quality) or PNG (level = compression 0-9).
func (c *Imaging) Encode(img stdimage.Image, format image.Format, level int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case image.FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(level)))
	case image.FormatJPEG:
		err = imaging.Encode(&buf, c.flatten(img), imaging.JPEG, imaging.JPEGQuality(clampQuality(level)))
	default:
		return nil, fmt.Errorf("%w: unsupported output format %q", image.ErrEncode, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", image.ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// flatten composites non-opaque images onto the background, since JPEG has no alpha.
func (c *Imaging) flatten(img stdimage.Image) stdimage.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), c.background)
	return imaging.Overlay(bg, img, stdimage.Pt(0, 0), 1.0)
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// pngLevel maps a zlib-style level (0-9) to the four levels image/png supports.
func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

var _ image.Codec = (*Imaging)(nil)
