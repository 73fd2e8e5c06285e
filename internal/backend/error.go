package backend

import "errors"

// Error definitions for the backend package.
var (
	ErrUnsupportedBackend = errors.New("no inference runtime registered for backend kind")
	ErrInference          = errors.New("inference execution failed")
)
