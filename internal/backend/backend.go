// Package backend defines the polymorphic execution layer over the
// supported inference runtimes. A Backend runs batches of already-shaped
// tensors; interpreting data-cube dimension semantics is the caller's job.
package backend

import (
	"context"
	"fmt"
	"strings"
)

// Kind identifies an inference runtime.
type Kind string

const (
	// KindONNX is the ONNX Runtime graph backend: a fixed computation
	// graph with static input/output tensor names.
	KindONNX Kind = "onnx"

	// KindTFLite is the TensorFlow Lite interpreter backend; input
	// tensors may be resized between invocations.
	KindTFLite Kind = "tflite"
)

// KindForFramework maps an mlm:framework value to a runtime kind.
func KindForFramework(framework string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(framework)) {
	case "onnx":
		return KindONNX, nil
	case "tflite", "tensorflow", "tensorflow lite":
		return KindTFLite, nil
	}
	return "", fmt.Errorf("%w: framework %q", ErrUnsupportedBackend, framework)
}

// AcceptsArtifactType reports whether an asset's mlm:artifact_type is
// runnable on this kind. An empty artifact type is always accepted; items
// frequently omit it.
func (k Kind) AcceptsArtifactType(artifactType string) bool {
	switch strings.ToLower(strings.TrimSpace(artifactType)) {
	case "":
		return true
	case "onnx", "onnxruntime":
		return k == KindONNX
	case "tflite", "tensorflow", "tf":
		return k == KindTFLite
	}
	return false
}

// Tensor is a dense float32 tensor in row-major layout.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NumElements returns the element count implied by the tensor shape.
func (t Tensor) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Backend is the capability shared by all inference runtimes.
type Backend interface {
	// Kind returns the runtime identifier.
	Kind() Kind

	// Run executes one batch of inference. The input is shaped per the
	// model's input spec with a concrete batch length; the output keeps
	// the runtime-reported shape.
	Run(ctx context.Context, in Tensor) (Tensor, error)

	// Close releases runtime resources (session, interpreter).
	Close() error
}
