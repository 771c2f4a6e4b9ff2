package tool

import (
	"encoding/json"
	"time"
)

// ContentType discriminates content blocks.
type ContentType string

const (
	// ContentText is a plain text block.
	ContentText ContentType = "text"
	// ContentImage is a base64-encoded image block.
	ContentImage ContentType = "image"
)

// Content is a single block of a tool response.
type Content struct {
	Type     ContentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Data     string      `json:"data,omitempty"`
	MIMEType string      `json:"mimeType,omitempty"`
}

// Result is the response envelope of a tool execution.
// A result is either a success payload or a failure payload, never both.
type Result struct {
	// Content holds the response blocks.
	Content []Content `json:"content"`

	// IsError marks a failure payload.
	IsError bool `json:"isError,omitempty"`

	// Duration is how long the execution took.
	Duration time.Duration `json:"-"`
}

// NewImageResult creates a success result carrying one base64 image.
func NewImageResult(data, mimeType string) Result {
	return Result{
		Content: []Content{{Type: ContentImage, Data: data, MIMEType: mimeType}},
	}
}

// NewTextResult creates a success result carrying one text block.
func NewTextResult(text string) Result {
	return Result{
		Content: []Content{{Type: ContentText, Text: text}},
	}
}

// NewErrorResult creates a failure result with a human-readable message.
func NewErrorResult(message string) Result {
	return Result{
		Content: []Content{{Type: ContentText, Text: message}},
		IsError: true,
	}
}

// Image returns the first image block, if any.
func (r Result) Image() (Content, bool) {
	for _, c := range r.Content {
		if c.Type == ContentImage {
			return c, true
		}
	}
	return Content{}, false
}

// Text returns the concatenated text blocks.
func (r Result) Text() string {
	var s string
	for _, c := range r.Content {
		if c.Type == ContentText {
			s += c.Text
		}
	}
	return s
}

// JSON returns the envelope as JSON.
func (r Result) JSON() ([]byte, error) {
	return json.Marshal(r)
}
