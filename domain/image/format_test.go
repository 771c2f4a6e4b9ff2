package image_test

import (
	"testing"

	"github.com/imagereader/imagereader-mcp/domain/image"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		decoder string
		want    image.Format
		mime    string
	}{
		{"jpeg", image.FormatJPEG, "image/jpeg"},
		{"JPG", image.FormatJPEG, "image/jpeg"},
		{"png", image.FormatPNG, "image/png"},
		{"gif", image.FormatOther, "image/jpeg"},
		{"webp", image.FormatOther, "image/jpeg"},
		{"", image.FormatOther, "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.decoder, func(t *testing.T) {
			t.Parallel()

			got := image.ParseFormat(tt.decoder)
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.decoder, got, tt.want)
			}
			if got.MIMEType() != tt.mime {
				t.Errorf("MIMEType() = %s, want %s", got.MIMEType(), tt.mime)
			}
		})
	}
}

func TestFormat_IsPassthrough(t *testing.T) {
	t.Parallel()

	if !image.FormatJPEG.IsPassthrough() || !image.FormatPNG.IsPassthrough() {
		t.Error("JPEG and PNG should pass through")
	}
	if image.FormatOther.IsPassthrough() {
		t.Error("other formats must be re-encoded")
	}
}

func TestMetadata_Exceeds(t *testing.T) {
	t.Parallel()

	m := image.Metadata{Width: 3000, Height: 2000}
	if !m.Exceeds(1280) {
		t.Error("3000x2000 should exceed 1280")
	}
	if m.LongestSide() != 3000 {
		t.Errorf("LongestSide() = %d, want 3000", m.LongestSide())
	}

	small := image.Metadata{Width: 500, Height: 1280}
	if small.Exceeds(1280) {
		t.Error("500x1280 should not exceed 1280")
	}
}
