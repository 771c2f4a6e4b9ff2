package image

// CompactionResult is the outcome of a single compaction.
// Ownership of Data passes to the caller.
type CompactionResult struct {
	// Data is the final encoded buffer.
	Data []byte
	// MIMEType is the MIME type of Data, reflecting the actual encoding.
	MIMEType string
	// Format is the encoding of Data.
	Format Format
	// Width and Height are the pixel dimensions of Data.
	Width  int
	Height int
	// Quality is the JPEG quality or PNG compression level used (0 when Unchanged).
	Quality int
	// Iterations counts encodes performed.
	Iterations int
	// Resized is true when the bounding-box fit or the dimension loop shrank the image.
	Resized bool
	// Unchanged is true when the original bytes were returned as-is.
	Unchanged bool
	// MetThreshold is false when the budget could not be reached and
	// Data is the best-effort smallest buffer.
	MetThreshold bool
	// InputBytes is the size of the original buffer.
	InputBytes int
}

// Size returns len(Data).
func (r CompactionResult) Size() int {
	return len(r.Data)
}
