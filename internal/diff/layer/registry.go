package layer

import (
	"context"
	"slices"
	"sync"
)

// Registry holds layers contributed at runtime, keyed by name. Registration
// may finish after the viewer starts; Wait blocks until MarkLoaded is called.
type Registry struct {
	mu     sync.Mutex
	names  []string
	layers map[string]Layer
	once   sync.Once
	loaded chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		layers: make(map[string]Layer),
		loaded: make(chan struct{}),
	}
}

// Register adds or replaces the layer registered under name. A replaced layer
// keeps its position.
func (r *Registry) Register(name string, layer Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.layers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.layers[name] = layer
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.layers[name]; !ok {
		return
	}
	delete(r.layers, name)
	r.names = slices.DeleteFunc(r.names, func(n string) bool { return n == name })
}

// Providers returns the registered layers in registration order.
func (r *Registry) Providers() []Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Layer, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.layers[name])
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.names)
}

func (r *Registry) MarkLoaded() {
	r.once.Do(func() { close(r.loaded) })
}

func (r *Registry) Loaded() bool {
	select {
	case <-r.loaded:
		return true
	default:
		return false
	}
}

// Wait returns once registration has completed or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	select {
	case <-r.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
