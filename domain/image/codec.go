package image

import stdimage "image"

// Codec wraps the raw decode, resize and encode primitives.
// Implementations must be pure: no call mutates its inputs.
type Codec interface {
	// Probe reads dimensions and format without decoding pixel data.
	Probe(data []byte) (Metadata, error)

	// Decode decodes a full raster.
	Decode(data []byte) (stdimage.Image, error)

	// Resize fits img inside width x height, preserving aspect ratio.
	// Images already inside the box are returned at their original size.
	Resize(img stdimage.Image, width, height int) stdimage.Image

	// Encode encodes img. For JPEG, level is the quality (1-100).
	// For PNG, level is a compression level (0-9).
	Encode(img stdimage.Image, format Format, level int) ([]byte, error)
}
