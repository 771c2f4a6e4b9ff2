package tool

// Annotations describe tool behavior to clients.
type Annotations struct {
	// Title is a human-readable display name.
	Title string `json:"title,omitempty"`

	// ReadOnly indicates the tool has no side effects.
	ReadOnly bool `json:"read_only"`

	// Idempotent indicates multiple calls with same input yield same result.
	Idempotent bool `json:"idempotent"`

	// Tags are arbitrary labels for categorization.
	Tags []string `json:"tags,omitempty"`
}

// DefaultAnnotations returns annotations with safe defaults.
func DefaultAnnotations() Annotations {
	return Annotations{}
}

// HasTag reports whether the tool carries tag.
func (a Annotations) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
