// Package image provides the domain model for image compaction.
package image

import "strings"

// Format is the encoding of an image buffer.
type Format string

const (
	// FormatJPEG is a baseline or progressive JPEG.
	FormatJPEG Format = "jpeg"
	// FormatPNG is a PNG image.
	FormatPNG Format = "png"
	// FormatOther is any other decodable image (gif, webp, bmp, tiff).
	FormatOther Format = "other"
)

// MIME types emitted by the compactor.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// ParseFormat maps a decoder name as reported by image.DecodeConfig to a Format.
func ParseFormat(decoder string) Format {
	switch strings.ToLower(decoder) {
	case "jpeg", "jpg":
		return FormatJPEG
	case "png":
		return FormatPNG
	default:
		return FormatOther
	}
}

// MIMEType returns the MIME type for the format.
// FormatOther has no output encoding of its own and reports JPEG,
// which is what the compactor converts it to.
func (f Format) MIMEType() string {
	if f == FormatPNG {
		return MIMEPNG
	}
	return MIMEJPEG
}

// IsPassthrough reports whether buffers of this format may be returned unmodified.
func (f Format) IsPassthrough() bool {
	return f == FormatJPEG || f == FormatPNG
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}
