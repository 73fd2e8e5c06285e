package backend

import (
	"fmt"
	"sync"

	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

// Factory builds a runtime backend for a model artifact on local disk.
// The descriptor supplies tensor names and shapes; opts carries runtime
// tuning from configuration (thread counts and the like).
type Factory func(path string, desc *stac.Descriptor, opts map[string]any) (Backend, error)

// Registry maps backend kinds to their factories.
type Registry struct {
	factories map[Kind]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]Factory),
	}
}

// Register adds a factory for a backend kind, replacing any previous one.
func (r *Registry) Register(kind Kind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[kind] = factory
}

// Kinds returns the registered backend kinds.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	return kinds
}

// New builds a backend of the given kind for the artifact at path.
func (r *Registry) New(kind Kind, path string, desc *stac.Descriptor, opts map[string]any) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, kind)
	}

	return factory(path, desc, opts)
}
