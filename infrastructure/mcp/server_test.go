package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/resilience"
	"github.com/imagereader/imagereader-mcp/infrastructure/storage/memory"
)

func echoTool(t *testing.T, handler tool.Handler) tool.Tool {
	t.Helper()

	if handler == nil {
		handler = func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			return tool.NewTextResult(string(input)), nil
		}
	}
	tl, err := tool.NewBuilder("echo").
		WithDescription("Echoes its input").
		WithInputSchema(tool.ObjectSchema(map[string]tool.Property{
			"value": {Type: "string"},
		}, []string{"value"})).
		WithHandler(handler).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tl
}

func newTestServer(t *testing.T, cfg ServerConfig, tools ...tool.Tool) *ImageServer {
	t.Helper()

	registry, err := memory.NewToolRegistry(tools...)
	if err != nil {
		t.Fatalf("NewToolRegistry() error = %v", err)
	}
	cfg.Name = "test-server"
	cfg.Version = "1.0.0"
	cfg.Registry = registry
	return NewImageServer(cfg)
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func callRequest(args any) mcpgo.CallToolRequest {
	var req mcpgo.CallToolRequest
	req.Params.Name = "echo"
	req.Params.Arguments = args
	return req
}

func TestNewImageServer(t *testing.T) {
	t.Parallel()

	t.Run("creates server with registry", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, ServerConfig{}, echoTool(t, nil))
		if srv.srv == nil {
			t.Fatal("mcp server not built")
		}
		if got := srv.Registry().Names(); len(got) != 1 || got[0] != "echo" {
			t.Errorf("Names() = %v", got)
		}
	})

	t.Run("creates server without registry", func(t *testing.T) {
		t.Parallel()

		srv := NewImageServer(ServerConfig{Name: "test-server", Version: "1.0.0"})
		if srv.srv == nil {
			t.Fatal("mcp server not built")
		}
	})

	t.Run("creates server with instructions", func(t *testing.T) {
		t.Parallel()

		srv := NewImageServer(ServerConfig{
			Name:         "test-server",
			Version:      "1.0.0",
			Instructions: "Read images from disk",
		})
		if srv.srv == nil {
			t.Fatal("mcp server not built")
		}
	})
}

func TestImageServer_ToolsList(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerConfig{}, echoTool(t, nil))

	resp := srv.srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	for _, want := range []string{`"echo"`, `"Echoes its input"`, `"value"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("tools/list response missing %s: %s", want, raw)
		}
	}
}

func TestToolAnnotations(t *testing.T) {
	t.Parallel()

	tl, err := tool.NewBuilder("read").
		WithTitle("Read").
		ReadOnly().
		Idempotent().
		WithHandler(func(context.Context, json.RawMessage) (tool.Result, error) { return tool.Result{}, nil }).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got := toolAnnotations(tl.Annotations())
	if got.Title != "Read" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.ReadOnlyHint == nil || !*got.ReadOnlyHint {
		t.Error("ReadOnlyHint must be true")
	}
	if got.IdempotentHint == nil || !*got.IdempotentHint {
		t.Error("IdempotentHint must be true")
	}
	if got.DestructiveHint == nil || *got.DestructiveHint {
		t.Error("DestructiveHint must be false")
	}
}

func TestImageServer_Handler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handler   tool.Handler
		args      any
		wantError bool
		wantType  string
		wantText  string
	}{
		{
			name: "image result",
			handler: func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
				return tool.NewImageResult("AAAA", "image/jpeg"), nil
			},
			args:     map[string]any{"value": "x"},
			wantType: "image",
		},
		{
			name: "text result echoes arguments",
			handler: func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
				return tool.NewTextResult(string(input)), nil
			},
			args:     map[string]any{"value": "hello"},
			wantType: "text",
			wantText: `{"value":"hello"}`,
		},
		{
			name: "missing arguments become empty object",
			handler: func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
				return tool.NewTextResult(string(input)), nil
			},
			wantType: "text",
			wantText: `{}`,
		},
		{
			name: "error envelope passes through",
			handler: func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
				return tool.NewErrorResult("Error reading image: missing"), nil
			},
			args:      map[string]any{"value": "x"},
			wantError: true,
			wantType:  "text",
			wantText:  "Error reading image: missing",
		},
		{
			name: "escaping error becomes error result",
			handler: func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
				return tool.Result{}, errors.New("boom")
			},
			args:      map[string]any{"value": "x"},
			wantError: true,
			wantType:  "text",
			wantText:  "Error executing echo: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tl := echoTool(t, tt.handler)
			srv := newTestServer(t, ServerConfig{}, tl)

			res, err := srv.handlerFor(tl)(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if res.IsError != tt.wantError {
				t.Errorf("IsError = %v, want %v", res.IsError, tt.wantError)
			}
			if len(res.Content) != 1 {
				t.Fatalf("len(Content) = %d, want 1", len(res.Content))
			}

			switch c := res.Content[0].(type) {
			case mcpgo.ImageContent:
				if tt.wantType != "image" {
					t.Errorf("got image content, want %s", tt.wantType)
				}
				if c.Data != "AAAA" || c.MIMEType != "image/jpeg" {
					t.Errorf("image content = %+v", c)
				}
			case mcpgo.TextContent:
				if tt.wantType != "text" {
					t.Errorf("got text content, want %s", tt.wantType)
				}
				if c.Text != tt.wantText {
					t.Errorf("Text = %q, want %q", c.Text, tt.wantText)
				}
			default:
				t.Fatalf("unexpected content %T", c)
			}
		})
	}
}

func TestImageServer_MiddlewareAndExecutor(t *testing.T) {
	t.Parallel()

	var seen *middleware.ExecutionContext
	record := func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			seen = execCtx
			return next(ctx, execCtx)
		}
	}

	tl := echoTool(t, func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
		select {
		case <-ctx.Done():
			return tool.Result{}, ctx.Err()
		case <-time.After(time.Second):
			return tool.NewTextResult("late"), nil
		}
	})

	srv := newTestServer(t, ServerConfig{
		Middleware: record,
		Executor:   resilience.NewExecutor(resilience.ExecutorConfig{MaxConcurrent: 1, Timeout: 10 * time.Millisecond}),
		Transport:  "stdio",
	}, tl)

	res, err := srv.handlerFor(tl)(context.Background(), callRequest(map[string]any{"value": "x"}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected timeout to produce an error result")
	}
	text := res.Content[0].(mcpgo.TextContent).Text
	if !strings.Contains(text, tool.ErrExecutionTimeout.Error()) {
		t.Errorf("Text = %q, want timeout", text)
	}

	if seen == nil {
		t.Fatal("middleware was not called")
	}
	if seen.Transport != "stdio" || seen.Tool.Name() != "echo" {
		t.Errorf("execution context = %+v", seen)
	}
}

func TestImageServer_ServeStdio(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerConfig{}, echoTool(t, func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
		return tool.NewTextResult("ok"), nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"value":"x"}}}` + "\n")
	pr, pw := io.Pipe()
	var out syncBuffer

	done := make(chan error, 1)
	go func() {
		done <- srv.ServeStdio(ctx, io.MultiReader(in, pr), &out)
	}()

	deadline := time.After(3 * time.Second)
	for !strings.Contains(out.String(), `"ok"`) {
		select {
		case <-deadline:
			t.Fatalf("no response on stdout: %q", out.String())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	_ = pw.Close()
	if err := <-done; err != nil {
		t.Errorf("ServeStdio() error = %v", err)
	}
}

func TestImageServer_ServeHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerConfig{}, echoTool(t, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeHTTP(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeHTTP() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ServeHTTP() did not stop after cancel")
	}
}
