package tool

import (
	"encoding/json"
)

// Schema wraps a JSON Schema document.
type Schema struct {
	raw json.RawMessage
}

// NewSchema creates a schema from raw JSON.
func NewSchema(raw json.RawMessage) Schema {
	return Schema{raw: raw}
}

// EmptySchema returns a schema for an object with no declared properties.
func EmptySchema() Schema {
	return Schema{raw: json.RawMessage(`{"type":"object","properties":{}}`)}
}

// Property describes one object property.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ObjectSchema returns a schema for an object with the given properties.
func ObjectSchema(properties map[string]Property, required []string) Schema {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	raw, _ := json.Marshal(schema)
	return Schema{raw: raw}
}

// Raw returns the underlying JSON schema.
func (s Schema) Raw() json.RawMessage {
	if len(s.raw) == 0 {
		return EmptySchema().raw
	}
	return s.raw
}

// MarshalJSON implements json.Marshaler.
func (s Schema) MarshalJSON() ([]byte, error) {
	return s.Raw(), nil
}
