// Package imagetest generates deterministic image fixtures for tests.
package imagetest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	stdimage "image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
)

// Noise returns a w x h image of seeded random pixels. Noise compresses badly,
// which makes it useful for driving the size-reduction loops.
func Noise(w, h int, seed int64) *stdimage.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// Gradient returns a smooth opaque gradient, which compresses well.
func Gradient(w, h int) *stdimage.NRGBA {
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 0xff,
			})
		}
	}
	return img
}

// Transparent returns a fully transparent image.
func Transparent(w, h int) *stdimage.NRGBA {
	return stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
}

// JPEG encodes img at quality q.
func JPEG(tb testing.TB, img stdimage.Image, q int) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		tb.Fatalf("encode jpeg fixture: %v", err)
	}
	return buf.Bytes()
}

// PNG encodes img losslessly.
func PNG(tb testing.TB, img stdimage.Image) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		tb.Fatalf("encode png fixture: %v", err)
	}
	return buf.Bytes()
}

// GIF encodes img as a single-frame GIF.
func GIF(tb testing.TB, img stdimage.Image) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.GIF); err != nil {
		tb.Fatalf("encode gif fixture: %v", err)
	}
	return buf.Bytes()
}

// Config decodes the header of data and returns dimensions and decoder name.
func Config(tb testing.TB, data []byte) (stdimage.Config, string) {
	tb.Helper()
	cfg, name, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		tb.Fatalf("decode config: %v", err)
	}
	return cfg, name
}

// PNGHeader returns a PNG signature and IHDR chunk declaring a w x h 8-bit
// grayscale image with no pixel data. image.DecodeConfig succeeds on it; a full
// decode fails.
func PNGHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.Write([]byte("\x89PNG\r\n\x1a\n"))

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(ihdr)))
	buf.Write(length[:])
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], crc32.ChecksumIEEE(chunk))
	buf.Write(crc[:])
	return buf.Bytes()
}
