package predict

import "errors"

// Error definitions for the predict package.
var (
	ErrDimensionNotAvailable = errors.New("dimension not available")
	ErrDimensionMismatch     = errors.New("dimension does not fit the model input")
	ErrBandNotAvailable      = errors.New("band not available on the data cube")
)
