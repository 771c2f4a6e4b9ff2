package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := bolt.NewJSONHandler(buf)
	logger := bolt.New(handler).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
}

func TestProductionConfig(t *testing.T) {
	t.Parallel()

	config := ProductionConfig()

	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if result := parseLevel(tt.input); result != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  []string
	}{
		{"request id", RequestID("req-1"), []string{`"request_id":"req-1"`}},
		{"tool name", ToolName("read_image"), []string{`"tool":"read_image"`}},
		{"path", Path("/tmp/a.png"), []string{`"path":"/tmp/a.png"`}},
		{"bytes", Bytes("output_bytes", 2048), []string{`"output_bytes":2048`}},
		{"dimensions", Dimensions(1280, 853), []string{`"width":1280`, `"height":853`}},
		{"quality", Quality(70), []string{`"quality":70`}},
		{"format", Format("jpeg"), []string{`"format":"jpeg"`}},
		{"iterations", Iterations(3), []string{`"iterations":3`}},
		{"duration", Duration(100 * time.Millisecond), []string{`"duration_ms":100`}},
		{"bool", Bool("met_threshold", true), []string{`"met_threshold":true`}},
		{"component", Component("compactor"), []string{`"component":"compactor"`}},
		{"error", ErrorField(errors.New("boom")), []string{`"error":"boom"`}},
		{"str", Str("transport", "stdio"), []string{`"transport":"stdio"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")

			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected %s in output: %s", want, buf.String())
				}
			}
		})
	}
}

func TestErrorField_Nil(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(nil)(logger.Info()).Msg("test")

	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("unexpected error field in output: %s", buf.String())
	}
}

func TestLogEvent_Chaining(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	NewEvent(logger.Info()).
		Add(ToolName("read_image")).
		Add(Quality(80)).
		Msg("compacted")

	out := buf.String()
	for _, want := range []string{`"tool":"read_image"`, `"quality":80`, "compacted"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output: %s", want, out)
		}
	}
}

func TestNew_WritesToOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})
	l.Debug().Str("k", "v").Msg("hello")

	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("output = %s", buf.String())
	}
}
