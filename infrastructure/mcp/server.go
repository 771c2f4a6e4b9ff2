// Package mcp exposes tools over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
	"github.com/imagereader/imagereader-mcp/infrastructure/resilience"
)

// ImageServer wraps an MCP server exposing the tools of a registry.
type ImageServer struct {
	srv       *mcpserver.MCPServer
	registry  tool.Registry
	chain     middleware.Middleware
	executor  *resilience.Executor
	transport string
}

// ServerConfig configures an ImageServer.
type ServerConfig struct {
	// Name is the server name.
	Name string

	// Version is the server version.
	Version string

	// Instructions provides usage instructions for clients.
	Instructions string

	// Registry is the tool registry containing tools to expose.
	Registry tool.Registry

	// Middleware wraps every call. Nil runs tools directly.
	Middleware middleware.Middleware

	// Executor bounds concurrency and applies the call timeout. Nil runs
	// tools without limits.
	Executor *resilience.Executor

	// Transport labels calls in logs and spans.
	Transport string
}

// NewImageServer creates a new MCP server exposing every tool in the registry.
func NewImageServer(cfg ServerConfig) *ImageServer {
	opts := []mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	}
	if cfg.Instructions != "" {
		opts = append(opts, mcpserver.WithInstructions(cfg.Instructions))
	}

	chain := cfg.Middleware
	if chain == nil {
		chain = middleware.Noop()
	}

	s := &ImageServer{
		srv:       mcpserver.NewMCPServer(cfg.Name, cfg.Version, opts...),
		registry:  cfg.Registry,
		chain:     chain,
		executor:  cfg.Executor,
		transport: cfg.Transport,
	}

	if cfg.Registry != nil {
		for _, t := range cfg.Registry.List() {
			s.registerTool(t)
		}
	}

	return s
}

func (s *ImageServer) registerTool(t tool.Tool) {
	def := mcpgo.NewToolWithRawSchema(t.Name(), t.Description(), t.InputSchema().Raw())
	def.Annotations = toolAnnotations(t.Annotations())
	s.srv.AddTool(def, s.handlerFor(t))
}

func toolAnnotations(a tool.Annotations) mcpgo.ToolAnnotation {
	return mcpgo.ToolAnnotation{
		Title:           a.Title,
		ReadOnlyHint:    boolPtr(a.ReadOnly),
		DestructiveHint: boolPtr(false),
		IdempotentHint:  boolPtr(a.Idempotent),
		OpenWorldHint:   boolPtr(false),
	}
}

func boolPtr(b bool) *bool { return &b }

func (s *ImageServer) handlerFor(t tool.Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		input, err := arguments(req)
		if err != nil {
			return errorResult(t.Name(), fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)), nil
		}

		result, err := s.Call(ctx, t, input)
		if err != nil {
			return errorResult(t.Name(), err), nil
		}
		return toCallToolResult(result), nil
	}
}

// Call runs t through the middleware chain and the executor.
func (s *ImageServer) Call(ctx context.Context, t tool.Tool, input json.RawMessage) (tool.Result, error) {
	execCtx := &middleware.ExecutionContext{
		Transport: s.transport,
		Tool:      t,
		Input:     input,
	}
	return s.chain(s.terminal)(ctx, execCtx)
}

func (s *ImageServer) terminal(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
	if s.executor == nil {
		return middleware.Execute(ctx, execCtx)
	}
	return s.executor.Execute(ctx, execCtx.Tool, execCtx.Input)
}

func arguments(req mcpgo.CallToolRequest) (json.RawMessage, error) {
	if req.Params.Arguments == nil {
		return json.RawMessage(`{}`), nil
	}
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func toCallToolResult(r tool.Result) *mcpgo.CallToolResult {
	out := &mcpgo.CallToolResult{IsError: r.IsError}
	for _, c := range r.Content {
		switch c.Type {
		case tool.ContentImage:
			out.Content = append(out.Content, mcpgo.NewImageContent(c.Data, c.MIMEType))
		default:
			out.Content = append(out.Content, mcpgo.NewTextContent(c.Text))
		}
	}
	return out
}

func errorResult(name string, err error) *mcpgo.CallToolResult {
	return &mcpgo.CallToolResult{
		IsError: true,
		Content: []mcpgo.Content{mcpgo.NewTextContent(fmt.Sprintf("Error executing %s: %v", name, err))},
	}
}

// Registry returns the registry the server was built from.
func (s *ImageServer) Registry() tool.Registry {
	return s.registry
}

// ServeStdio runs the server over the given reader and writer until ctx is
// cancelled or the input is closed.
func (s *ImageServer) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	logging.Info().
		Add(logging.Component("mcp")).
		Add(logging.Str("transport", "stdio")).
		Msg("serving")

	err := mcpserver.NewStdioServer(s.srv).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ServeHTTP runs the streamable HTTP transport on addr until ctx is cancelled.
func (s *ImageServer) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := mcpserver.NewStreamableHTTPServer(s.srv)

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Add(logging.Component("mcp")).
			Add(logging.Str("transport", "http")).
			Add(logging.Str("addr", addr)).
			Msg("serving")
		errCh <- httpSrv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http transport: %w", err)
		}
		return nil
	}
}
