package config

import (
	"encoding/json"

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
	"github.com/imagereader/imagereader-mcp/domain/image"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema      string                 `json:"$schema,omitempty"`
	ID          string                 `json:"$id,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	Format      string                 `json:"format,omitempty"`
}

// GenerateSchema generates a JSON Schema for ServerConfig.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/imagereader/imagereader-mcp/server-config.schema.json",
		Title:       "Image Reader Server Configuration",
		Description: "Configuration schema for the read_image MCP server",
		Type:        "object",
		Properties: map[string]*JSONSchema{
			"name":         {Type: "string", Description: "Server name reported to clients", Default: "ImageReader"},
			"version":      {Type: "string", Description: "Server version reported to clients", Default: "1.0.0"},
			"instructions": {Type: "string", Description: "Usage hints sent during initialization"},
			"transport": {
				Type:        "string",
				Description: "Transport the server listens on",
				Enum:        []string{"stdio", "http"},
				Default:     "stdio",
			},
			"address":    {Type: "string", Description: "Listen address for the http transport", Default: ":8080"},
			"compaction": generateCompactionSchema(),
			"limits": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"max_input_bytes": {
						Type:        "integer",
						Description: "Largest file the tool will read",
						Minimum:     floatPtr(1),
						Default:     domainconfig.DefaultMaxInputBytes,
					},
					"max_input_pixels": {
						Type:        "integer",
						Description: "Largest width*height the tool will decode",
						Minimum:     floatPtr(1),
						Default:     domainconfig.DefaultMaxInputPixels,
					},
				},
			},
			"codec": {
				Type:        "object",
				Description: "Resampling and JPEG flattening (read at startup)",
				Properties: map[string]*JSONSchema{
					"resampling_filter": {Type: "string", Enum: domainconfig.ResamplingFilters, Default: domainconfig.DefaultFilter},
					"jpeg_background":   {Type: "string", Description: "#rrggbb color under transparent pixels", Default: domainconfig.DefaultBackground},
				},
			},
			"logging": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"level":  {Type: "string", Enum: []string{"debug", "info", "warn", "error"}, Default: "info"},
					"format": {Type: "string", Enum: []string{"json", "console"}, Default: "json"},
				},
			},
			"resilience": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"timeout":        {Type: "string", Format: "duration", Default: "30s"},
					"max_concurrent": {Type: "integer", Minimum: floatPtr(1), Default: 4},
					"rate_limit": {
						Type: "object",
						Properties: map[string]*JSONSchema{
							"enabled":  {Type: "boolean", Default: false},
							"rate":     {Type: "integer", Minimum: floatPtr(1), Description: "Calls per second"},
							"burst":    {Type: "integer", Minimum: floatPtr(0), Description: "Bucket capacity (default: rate)"},
							"per_tool": {Type: "boolean", Default: false, Description: "One bucket per tool instead of one shared bucket"},
						},
					},
				},
			},
			"telemetry": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"tracing": {
						Type: "object",
						Properties: map[string]*JSONSchema{
							"enabled":     {Type: "boolean", Default: false},
							"exporter":    {Type: "string", Enum: []string{"stdout", "otlp"}, Default: "stdout"},
							"endpoint":    {Type: "string", Description: "OTLP gRPC endpoint"},
							"insecure":    {Type: "boolean"},
							"sample_rate": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1), Default: 1},
						},
					},
				},
			},
			"audit": {
				Type:        "object",
				Description: "Audit trail of files read by the tool",
				Properties: map[string]*JSONSchema{
					"enabled": {Type: "boolean", Default: false},
					"path":    {Type: "string", Description: "JSON lines file (default: stderr)"},
				},
			},
		},
	}
}

func generateCompactionSchema() *JSONSchema {
	d := image.DefaultCompactionConfig()
	return &JSONSchema{
		Type:        "object",
		Description: "Size and dimension budget for returned images",
		Properties: map[string]*JSONSchema{
			"max_bytes":             {Type: "integer", Minimum: floatPtr(1), Default: d.MaxBytes},
			"max_dimension":         {Type: "integer", Minimum: floatPtr(1), Default: d.MaxDimension},
			"min_dimension":         {Type: "integer", Minimum: floatPtr(1), Default: d.MinDimension},
			"initial_quality":       {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(100), Default: d.InitialQuality},
			"quality_step":          {Type: "integer", Minimum: floatPtr(1), Default: d.QualityStep},
			"quality_floor":         {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(100), Default: d.QualityFloor},
			"scale_factor":          {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1), Default: d.ScaleFactor},
			"preserve_png":          {Type: "boolean", Default: d.PreservePNG},
			"png_compression_level": {Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(9), Default: d.PNGCompression()},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

// SchemaJSON returns the JSON Schema as a JSON string.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
