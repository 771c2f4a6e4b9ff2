package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imagereader/imagereader-mcp/application"
	"github.com/imagereader/imagereader-mcp/domain/image/imagetest"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/codec"
)

func newTestTool(t *testing.T, home string, limit int64) tool.Tool {
	t.Helper()

	compactor, err := application.NewCompactor(application.WithCodec(codec.New()))
	if err != nil {
		t.Fatalf("NewCompactor() error = %v", err)
	}

	cfg := DefaultPackConfig()
	cfg.Compactor = compactor
	cfg.HomeDir = func() (string, error) { return home, nil }
	if limit > 0 {
		cfg.Limits = fixedLimit(limit)
	}

	tl, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tl
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func call(t *testing.T, tl tool.Tool, args any) tool.Result {
	t.Helper()

	input, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	result, err := tl.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() returned error %v; failures must be envelopes", err)
	}
	return result
}

func decodeImage(t *testing.T, result tool.Result) ([]byte, string) {
	t.Helper()

	if result.IsError {
		t.Fatalf("unexpected error envelope: %s", result.Text())
	}
	if len(result.Content) != 1 {
		t.Fatalf("len(Content) = %d, want 1", len(result.Content))
	}
	c, ok := result.Image()
	if !ok {
		t.Fatal("result has no image block")
	}
	data, err := base64.StdEncoding.DecodeString(c.Data)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	return data, c.MIMEType
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires compactor", func(t *testing.T) {
		t.Parallel()

		if _, err := New(DefaultPackConfig()); !errors.Is(err, ErrCompactorNotConfigured) {
			t.Errorf("New() error = %v, want ErrCompactorNotConfigured", err)
		}
	})

	t.Run("publishes tool metadata", func(t *testing.T) {
		t.Parallel()

		tl := newTestTool(t, t.TempDir(), 0)
		if tl.Name() != "read_image" {
			t.Errorf("Name() = %q", tl.Name())
		}
		if !strings.Contains(tl.Description(), "Base64-encoded JPEG or PNG") {
			t.Errorf("Description() = %q", tl.Description())
		}
		if !tl.Annotations().ReadOnly {
			t.Error("expected read-only annotation")
		}

		var schema struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
			Required []string `json:"required"`
		}
		if err := json.Unmarshal(tl.InputSchema().Raw(), &schema); err != nil {
			t.Fatalf("unmarshal schema: %v", err)
		}
		if schema.Properties["imagePath"].Type != "string" {
			t.Errorf("imagePath schema = %+v", schema.Properties)
		}
		if len(schema.Required) != 1 || schema.Required[0] != "imagePath" {
			t.Errorf("Required = %v", schema.Required)
		}
	})
}

func TestReadImage_SmallPNGUnchanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := imagetest.PNG(t, imagetest.Gradient(500, 400))
	path := writeFile(t, dir, "small.png", original)

	data, mime := decodeImage(t, call(t, newTestTool(t, dir, 0), map[string]any{"imagePath": path}))
	if mime != "image/png" {
		t.Errorf("mimeType = %q, want image/png", mime)
	}
	if !bytes.Equal(data, original) {
		t.Error("image under budget was re-encoded")
	}
}

func TestReadImage_LargeJPEGResized(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "large.jpg", imagetest.JPEG(t, imagetest.Noise(3000, 2000, 7), 95))

	data, mime := decodeImage(t, call(t, newTestTool(t, dir, 0), map[string]any{"imagePath": path}))
	if mime != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", mime)
	}

	cfg, name := imagetest.Config(t, data)
	if name != "jpeg" {
		t.Errorf("output format = %q, want jpeg", name)
	}
	if cfg.Width != 1280 || cfg.Height != 853 {
		t.Errorf("dimensions = %dx%d, want 1280x853", cfg.Width, cfg.Height)
	}
}

func TestReadImage_ExtensionMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := imagetest.PNG(t, imagetest.Gradient(64, 64))
	path := writeFile(t, dir, "actually-png.jpg", original)

	_, mime := decodeImage(t, call(t, newTestTool(t, dir, 0), map[string]any{"imagePath": path}))
	if mime != "image/png" {
		t.Errorf("mimeType = %q, want image/png from sniffed content", mime)
	}
}

func TestReadImage_RelativeToHome(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, "pics"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(home, "pics"), "a.jpg", imagetest.JPEG(t, imagetest.Gradient(32, 32), 80))

	tl := newTestTool(t, home, 0)
	for _, p := range []string{"pics/a.jpg", "~/pics/a.jpg"} {
		if _, mime := decodeImage(t, call(t, tl, map[string]any{"imagePath": p})); mime != "image/jpeg" {
			t.Errorf("%s: mimeType = %q", p, mime)
		}
	}
}

func TestReadImage_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	corrupt := writeFile(t, dir, "corrupt.jpg", []byte("not a jpeg"))
	big := writeFile(t, dir, "big.jpg", imagetest.JPEG(t, imagetest.Gradient(64, 64), 80))
	huge := writeFile(t, dir, "huge.png", imagetest.PNGHeader(16000, 16000))

	tests := []struct {
		name     string
		args     any
		limit    int64
		wantText string
	}{
		{"missing path", map[string]any{}, 0, "imagePath is required"},
		{"empty path", map[string]any{"imagePath": ""}, 0, "imagePath is empty"},
		{"non-string path", map[string]any{"imagePath": 42}, 0, "imagePath must be a string"},
		{"arguments not an object", []string{"x"}, 0, "arguments must be an object"},
		{"nonexistent file", map[string]any{"imagePath": filepath.Join(dir, "nope.jpg")}, 0, "not found"},
		{"directory", map[string]any{"imagePath": dir}, 0, "is a directory"},
		{"corrupt jpeg", map[string]any{"imagePath": corrupt}, 0, "decode"},
		{"input too large", map[string]any{"imagePath": big}, 16, "too large"},
		{"declared raster too large", map[string]any{"imagePath": huge}, 0, "256000000 pixels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := call(t, newTestTool(t, dir, tt.limit), tt.args)
			if !result.IsError {
				t.Fatal("expected error envelope")
			}
			if _, ok := result.Image(); ok {
				t.Error("error envelope carries an image")
			}
			text := result.Text()
			if !strings.HasPrefix(text, "Error sending image: ") {
				t.Errorf("Text = %q, want error prefix", text)
			}
			if !strings.Contains(text, tt.wantText) {
				t.Errorf("Text = %q, want it to contain %q", text, tt.wantText)
			}
		})
	}
}
