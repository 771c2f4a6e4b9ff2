// Package audit records which files were read through the tool surface.
package audit

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/imagereader/imagereader-mcp/domain/middleware"
	"github.com/imagereader/imagereader-mcp/domain/tool"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
)

// Event represents a security audit event.
type Event struct {
	Timestamp   time.Time     `json:"timestamp"`
	EventType   EventType     `json:"event_type"`
	RequestID   string        `json:"request_id,omitempty"`
	Transport   string        `json:"transport,omitempty"`
	ToolName    string        `json:"tool_name,omitempty"`
	Path        string        `json:"path,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration_ns,omitempty"`
	InputHash   string        `json:"input_hash,omitempty"`
	MIMEType    string        `json:"mime_type,omitempty"`
	EncodedSize int           `json:"encoded_size,omitempty"`
}

// EventType categorizes audit events.
type EventType string

const (
	// EventToolCall is a call that reached the tool and returned a result.
	EventToolCall EventType = "tool_call"
	// EventToolFailure is a call that produced an error envelope.
	EventToolFailure EventType = "tool_failure"
	// EventRejected is a call stopped before or around the tool (rate limit,
	// bulkhead, timeout, invalid input).
	EventRejected EventType = "rejected"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Close releases resources.
	Close() error
}

// Filter selects events when reading a trail back. Zero fields match all.
// Limit keeps the most recent matches.
type Filter struct {
	StartTime  time.Time
	EndTime    time.Time
	EventTypes []EventType
	RequestID  string
	ToolName   string
	Path       string
	Success    *bool
	Limit      int
}

// MemoryLogger keeps the most recent events in memory.
type MemoryLogger struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// MemoryLoggerOption configures the memory logger.
type MemoryLoggerOption func(*MemoryLogger)

// WithMaxEvents sets the maximum number of events to retain.
func WithMaxEvents(max int) MemoryLoggerOption {
	return func(l *MemoryLogger) {
		l.maxLen = max
	}
}

// NewMemoryLogger creates a new in-memory audit logger.
func NewMemoryLogger(opts ...MemoryLoggerOption) *MemoryLogger {
	l := &MemoryLogger{
		events: make([]Event, 0),
		maxLen: 10000,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records an event.
func (l *MemoryLogger) Log(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.events = append(l.events, event)
	if l.maxLen > 0 && len(l.events) > l.maxLen {
		l.events = l.events[len(l.events)-l.maxLen:]
	}
	return nil
}

// Close releases resources.
func (l *MemoryLogger) Close() error {
	return nil
}

// Events returns a copy of all retained events.
func (l *MemoryLogger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]Event, len(l.events))
	copy(result, l.events)
	return result
}

func matchesFilter(event Event, filter Filter) bool {
	if !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && event.Timestamp.After(filter.EndTime) {
		return false
	}
	if len(filter.EventTypes) > 0 {
		found := false
		for _, t := range filter.EventTypes {
			if event.EventType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.RequestID != "" && event.RequestID != filter.RequestID {
		return false
	}
	if filter.ToolName != "" && event.ToolName != filter.ToolName {
		return false
	}
	if filter.Path != "" && event.Path != filter.Path {
		return false
	}
	if filter.Success != nil && event.Success != *filter.Success {
		return false
	}
	return true
}

// Scan reads a JSON lines trail written by JSONLogger and returns the events
// matching filter in file order. Blank lines are skipped.
func Scan(r io.Reader, filter Filter) ([]Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var result []Event
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("audit line %d: %w", line, err)
		}
		if matchesFilter(event, filter) {
			result = append(result, event)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[len(result)-filter.Limit:]
	}
	return result, nil
}

// JSONLogger writes one JSON object per event.
type JSONLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	encoder *json.Encoder
}

// NewJSONLogger creates a new JSON audit logger.
func NewJSONLogger(writer io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:  writer,
		encoder: json.NewEncoder(writer),
	}
}

// Log records an event as JSON.
func (l *JSONLogger) Log(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return l.encoder.Encode(event)
}

// Close closes the writer if it is a Closer.
func (l *JSONLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// MiddlewareConfig configures the audit middleware.
type MiddlewareConfig struct {
	// Logger receives the events. Required.
	Logger Logger
	// PathField is the input property recorded as Path. Default "imagePath".
	PathField string
}

// Middleware returns middleware that records every call. The event is
// written before the result is returned.
func Middleware(cfg MiddlewareConfig) middleware.Middleware {
	field := cfg.PathField
	if field == "" {
		field = "imagePath"
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()

			result, err := next(ctx, execCtx)

			event := Event{
				Timestamp: start,
				EventType: EventToolCall,
				RequestID: execCtx.RequestID,
				Transport: execCtx.Transport,
				ToolName:  execCtx.Tool.Name(),
				Path:      inputField(execCtx.Input, field),
				Duration:  time.Since(start),
				InputHash: hashInput(execCtx.Input),
				Success:   err == nil && !result.IsError,
			}

			switch {
			case err != nil:
				event.EventType = EventRejected
				event.Error = err.Error()
			case result.IsError:
				event.EventType = EventToolFailure
				event.Error = result.Text()
			default:
				if img, ok := result.Image(); ok {
					event.MIMEType = img.MIMEType
					event.EncodedSize = len(img.Data)
				}
			}

			if logErr := cfg.Logger.Log(ctx, event); logErr != nil {
				logging.Warn().
					Add(logging.Component("audit")).
					Add(logging.RequestID(execCtx.RequestID)).
					Add(logging.ErrorField(logErr)).
					Msg("audit write failed")
			}

			return result, err
		}
	}
}

func inputField(input json.RawMessage, field string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(input, &fields); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(fields[field], &s); err != nil {
		return ""
	}
	return s
}

func hashInput(input json.RawMessage) string {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 {
		return ""
	}
	sum := sha256.Sum256(trimmed)
	return hex.EncodeToString(sum[:])
}
