package model

import (
	"context"
	"sync"

	"github.com/jonas-hurst/openeo-ml-go/internal/backend"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

// Handle is a loaded, ready-to-run model. It owns its runtime resources
// exclusively; the handle stays valid until Close or process end.
type Handle struct {
	ID    string
	URI   string
	Asset string
	Kind  backend.Kind

	descriptor *stac.Descriptor
	runtime    backend.Backend
	closeOnce  sync.Once
	closeErr   error
}

// Descriptor returns the model metadata the handle was built from.
func (h *Handle) Descriptor() *stac.Descriptor {
	return h.descriptor
}

// Run executes one batch of inference on the handle's runtime.
func (h *Handle) Run(ctx context.Context, in backend.Tensor) (backend.Tensor, error) {
	return h.runtime.Run(ctx, in)
}

// Close releases the runtime resources. Safe to call more than once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.runtime.Close()
	})
	return h.closeErr
}
