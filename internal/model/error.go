package model

import "errors"

// Error definitions for the model package.
var (
	ErrArtifactUnreachable = errors.New("model artifact could not be fetched or opened")
	ErrModelLoad           = errors.New("model artifact could not be decoded or initialized")
)
