package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// RequestID adds a request ID field.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// ToolName adds a tool name field.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// Path adds a filesystem path field.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Bytes adds a byte count under key.
func Bytes(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// Dimensions adds width and height fields.
func Dimensions(width, height int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("width", width).Int("height", height)
	}
}

// Quality adds the encoder quality or compression level.
func Quality(q int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("quality", q)
	}
}

// Format adds an image format field.
func Format(f string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("format", f)
	}
}

// Iterations adds an encode count.
func Iterations(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("iterations", n)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Bool adds a boolean field.
func Bool(key string, v bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool(key, v)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
