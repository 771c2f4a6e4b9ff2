package middleware

import "strings"

type entry struct {
	name string
	m    Middleware
}

// Registry is an ordered, named set of middleware. Names show up in startup
// logs so an operator can see which stages a server runs.
type Registry struct {
	entries []entry
}

// NewRegistry creates an empty middleware registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Use appends m under name. Middleware run in the order they are added.
// Reusing a name replaces the earlier middleware in place.
func (r *Registry) Use(name string, m Middleware) *Registry {
	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries[i].m = m
			return r
		}
	}
	r.entries = append(r.entries, entry{name: name, m: m})
	return r
}

// Has reports whether a middleware named name is registered.
func (r *Registry) Has(name string) bool {
	for _, e := range r.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// Names returns the middleware names in execution order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Chain returns the composed middleware, or Noop when empty.
func (r *Registry) Chain() Middleware {
	if len(r.entries) == 0 {
		return Noop()
	}
	ms := make([]Middleware, len(r.entries))
	for i, e := range r.entries {
		ms[i] = e.m
	}
	return Chain(ms...)
}

// Len returns the number of middleware in the registry.
func (r *Registry) Len() int {
	return len(r.entries)
}

// String lists the stages, e.g. "request_id > logging".
func (r *Registry) String() string {
	return "[" + strings.Join(r.Names(), " > ") + "]"
}
