package image

// Metadata describes an image read from its header. It is immutable once computed.
type Metadata struct {
	// Width is the pixel width.
	Width int `json:"width"`
	// Height is the pixel height.
	Height int `json:"height"`
	// Format is the normalized encoding.
	Format Format `json:"format"`
	// Decoder is the raw decoder name (jpeg, png, gif, webp, bmp, tiff).
	Decoder string `json:"decoder"`
}

// LongestSide returns max(Width, Height).
func (m Metadata) LongestSide() int {
	if m.Width > m.Height {
		return m.Width
	}
	return m.Height
}

// Exceeds reports whether either dimension is larger than limit.
func (m Metadata) Exceeds(limit int) bool {
	return m.Width > limit || m.Height > limit
}

// Pixels returns Width*Height, the number of pixels a full decode allocates.
func (m Metadata) Pixels() int64 {
	return int64(m.Width) * int64(m.Height)
}
