package application

import (
	stdimage "image"
	"testing"

	"github.com/imagereader/imagereader-mcp/domain/image"
)

func TestKeep(t *testing.T) {
	t.Parallel()

	a := attempt{data: make([]byte, 10), level: 80}
	b := attempt{data: make([]byte, 10), level: 70}
	c := attempt{data: make([]byte, 5), level: 60}

	if got := keep(a, b); got.level != 80 {
		t.Errorf("tie kept level %d, want 80", got.level)
	}
	if got := keep(a, c); got.level != 60 {
		t.Errorf("keep() level = %d, want 60", got.level)
	}
}

func TestNextQuality_ClampsToOne(t *testing.T) {
	t.Parallel()

	cfg := image.DefaultCompactionConfig()
	cfg.QualityStep = 30
	cfg.QualityFloor = 1

	fc := &fakeCodec{meta: meta(image.FormatJPEG, 10, 10), sizeFn: byQuality}
	c := &Compactor{codec: fc}
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 10, 10))

	st := qualityState{quality: 20, best: attempt{data: make([]byte, 20_000)}}
	next, err := c.nextQuality(cfg, img, st)
	if err != nil {
		t.Fatalf("nextQuality() error = %v", err)
	}
	if next.quality != 1 {
		t.Errorf("quality = %d, want 1", next.quality)
	}
	if next.encodes != 1 {
		t.Errorf("encodes = %d, want 1", next.encodes)
	}
	if len(next.best.data) != 1000 {
		t.Errorf("best size = %d, want 1000", len(next.best.data))
	}
}

func TestNextScale(t *testing.T) {
	t.Parallel()

	cfg := image.DefaultCompactionConfig()
	fc := &fakeCodec{sizeFn: byArea}
	c := &Compactor{codec: fc}

	tests := []struct {
		name          string
		width, height int
		scale         float64
		wantOK        bool
	}{
		{name: "first step", width: 1000, height: 500, scale: 1, wantOK: true},
		{name: "crosses minimum", width: 1000, height: 110, scale: 1, wantOK: false},
		{name: "exactly minimum", width: 1000, height: 200, scale: 0.5 / 0.9, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			img := stdimage.NewNRGBA(stdimage.Rect(0, 0, tt.width, tt.height))
			st := scaleState{scale: tt.scale, best: attempt{data: make([]byte, tt.width*tt.height)}}
			next, ok, err := c.nextScale(cfg, img, st)
			if err != nil {
				t.Fatalf("nextScale() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if next.scale != st.scale {
					t.Error("state must not change when the step is refused")
				}
				return
			}
			if next.last.width >= tt.width || next.last.height >= tt.height {
				t.Errorf("next = %dx%d, expected smaller than %dx%d", next.last.width, next.last.height, tt.width, tt.height)
			}
		})
	}
}
