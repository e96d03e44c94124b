package agents

import (
	"fmt"
	"sort"
)

// Registry maps a route category to its responder. Immutable after
// construction: all handlers are registered at startup and duplicate names
// are a configuration error, not a runtime one.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from the given handlers.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	m := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		name := h.Name()
		if name == "" {
			return nil, fmt.Errorf("agent with empty name")
		}
		if _, exists := m[name]; exists {
			return nil, fmt.Errorf("duplicate agent registered: %s", name)
		}
		m[name] = h
	}
	return &Registry{handlers: m}, nil
}

// Resolve returns the handler registered under name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered category names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
