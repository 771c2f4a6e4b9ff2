package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
)

func TestMemoryLogger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := NewMemoryLogger()

	if err := logger.Log(ctx, Event{EventType: EventToolCall, ToolName: "read_image", Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ToolName != "read_image" {
		t.Errorf("expected tool name read_image, got %s", events[0].ToolName)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMemoryLoggerMaxEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := NewMemoryLogger(WithMaxEvents(5))

	for i := 0; i < 10; i++ {
		_ = logger.Log(ctx, Event{EventType: EventToolCall, Path: string(rune('a' + i))})
	}

	events := logger.Events()
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	if events[0].Path != "f" {
		t.Errorf("oldest retained path = %q, want f", events[0].Path)
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var trail bytes.Buffer
	logger := NewJSONLogger(&trail)
	ctx := context.Background()
	_ = logger.Log(ctx, Event{Timestamp: base, EventType: EventToolCall, RequestID: "r1", ToolName: "read_image", Path: "/a.png", Success: true})
	_ = logger.Log(ctx, Event{Timestamp: base.Add(time.Second), EventType: EventToolFailure, RequestID: "r2", ToolName: "read_image", Path: "/b.png"})
	trail.WriteString("\n")
	_ = logger.Log(ctx, Event{Timestamp: base.Add(2 * time.Second), EventType: EventRejected, RequestID: "r3", ToolName: "other"})

	success := true
	failure := false

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"r1", "r2", "r3"}},
		{"by type", Filter{EventTypes: []EventType{EventToolFailure, EventRejected}}, []string{"r2", "r3"}},
		{"by request", Filter{RequestID: "r2"}, []string{"r2"}},
		{"by tool", Filter{ToolName: "read_image"}, []string{"r1", "r2"}},
		{"by path", Filter{Path: "/a.png"}, []string{"r1"}},
		{"successful", Filter{Success: &success}, []string{"r1"}},
		{"failed", Filter{Success: &failure}, []string{"r2", "r3"}},
		{"time range", Filter{StartTime: base.Add(500 * time.Millisecond), EndTime: base.Add(1500 * time.Millisecond)}, []string{"r2"}},
		{"limit keeps latest", Filter{Limit: 2}, []string{"r2", "r3"}},
		{"limit after filter", Filter{ToolName: "read_image", Limit: 1}, []string{"r2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			events, err := Scan(bytes.NewReader(trail.Bytes()), tt.filter)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			var got []string
			for _, e := range events {
				got = append(got, e.RequestID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Scan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScan_MalformedLine(t *testing.T) {
	t.Parallel()

	trail := `{"event_type":"tool_call","request_id":"r1"}` + "\nnot json\n"
	_, err := Scan(strings.NewReader(trail), Filter{})
	if err == nil || !strings.Contains(err.Error(), "audit line 2") {
		t.Errorf("Scan() error = %v, want line 2 error", err)
	}
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closeBuffer) Close() error {
	c.closed = true
	return nil
}

func TestJSONLogger(t *testing.T) {
	t.Parallel()

	var buf closeBuffer
	logger := NewJSONLogger(&buf)

	if err := logger.Log(context.Background(), Event{EventType: EventToolCall, Path: "/tmp/a.png", Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if decoded.Path != "/tmp/a.png" || !decoded.Success {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	if err := logger.Close(); err != nil || !buf.closed {
		t.Errorf("Close() error = %v, closed = %v", err, buf.closed)
	}
}

func newTool(t *testing.T, handler tool.Handler) tool.Tool {
	t.Helper()

	tl, err := tool.NewBuilder("read_image").WithHandler(handler).Build()
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  middleware.Handler
		wantType EventType
		wantOK   bool
		wantErr  string
		wantMIME string
	}{
		{
			name: "image result",
			handler: func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
				return tool.NewImageResult("QUJD", "image/png"), nil
			},
			wantType: EventToolCall,
			wantOK:   true,
			wantMIME: "image/png",
		},
		{
			name: "error envelope",
			handler: func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
				return tool.NewErrorResult("Error sending image: image file not found"), nil
			},
			wantType: EventToolFailure,
			wantErr:  "image file not found",
		},
		{
			name: "rejected call",
			handler: func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
				return tool.Result{}, tool.ErrRateLimited
			},
			wantType: EventRejected,
			wantErr:  "rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger := NewMemoryLogger()
			h := Middleware(MiddlewareConfig{Logger: logger})(tt.handler)

			execCtx := &middleware.ExecutionContext{
				RequestID: "req-1",
				Transport: "stdio",
				Tool:      newTool(t, func(context.Context, json.RawMessage) (tool.Result, error) { return tool.Result{}, nil }),
				Input:     json.RawMessage(`{"imagePath":"/tmp/cat.png"}`),
			}
			_, _ = h(context.Background(), execCtx)

			events := logger.Events()
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			e := events[0]
			if e.EventType != tt.wantType || e.Success != tt.wantOK {
				t.Errorf("event type/success = %s/%v, want %s/%v", e.EventType, e.Success, tt.wantType, tt.wantOK)
			}
			if e.Path != "/tmp/cat.png" || e.RequestID != "req-1" || e.Transport != "stdio" || e.ToolName != "read_image" {
				t.Errorf("event = %+v", e)
			}
			if len(e.InputHash) != 64 {
				t.Errorf("InputHash = %q, want sha256 hex", e.InputHash)
			}
			if !strings.Contains(e.Error, tt.wantErr) {
				t.Errorf("Error = %q, want it to contain %q", e.Error, tt.wantErr)
			}
			if e.MIMEType != tt.wantMIME {
				t.Errorf("MIMEType = %q, want %q", e.MIMEType, tt.wantMIME)
			}
		})
	}
}

type failingLogger struct{ MemoryLogger }

func (f *failingLogger) Log(context.Context, Event) error { return errors.New("disk full") }

func TestMiddleware_LoggerFailureDoesNotFailCall(t *testing.T) {
	t.Parallel()

	h := Middleware(MiddlewareConfig{Logger: &failingLogger{}})(
		func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			return tool.NewTextResult("ok"), nil
		})

	result, err := h(context.Background(), &middleware.ExecutionContext{
		Tool:  newTool(t, func(context.Context, json.RawMessage) (tool.Result, error) { return tool.Result{}, nil }),
		Input: json.RawMessage(`not json`),
	})
	if err != nil || result.Text() != "ok" {
		t.Errorf("result = %+v, err = %v", result, err)
	}
}
