// Package onnx runs models through ONNX Runtime.
package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/jonas-hurst/openeo-ml-go/internal/backend"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

var (
	initOnce sync.Once
	initErr  error
)

// initRuntime initializes the shared ONNX environment. The environment
// lives for the rest of the process; sessions come and go independently.
func initRuntime() error {
	initOnce.Do(func() {
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	return initErr
}

// Backend holds one ONNX Runtime session over a fixed computation graph.
type Backend struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

// New builds an ONNX backend for the artifact at path. Tensor names come
// from the descriptor's input/output specs. Matches backend.Factory.
func New(path string, desc *stac.Descriptor, opts map[string]any) (backend.Backend, error) {
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("initialize onnx environment: %w", err)
	}

	inputName, outputName := "input", "output"
	if len(desc.Inputs) > 0 && desc.Inputs[0].Name != "" {
		inputName = desc.Inputs[0].Name
	}
	if len(desc.Outputs) > 0 && desc.Outputs[0].Name != "" {
		outputName = desc.Outputs[0].Name
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	if threads, ok := opts["threads"].(int); ok && threads > 0 {
		if err := options.SetIntraOpNumThreads(threads); err != nil {
			return nil, fmt.Errorf("set session threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{inputName}, []string{outputName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Backend{
		session:    session,
		inputName:  inputName,
		outputName: outputName,
	}, nil
}

// Kind returns the runtime identifier.
func (b *Backend) Kind() backend.Kind {
	return backend.KindONNX
}

// Run executes one batch through the session.
func (b *Backend) Run(ctx context.Context, in backend.Tensor) (backend.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return backend.Tensor{}, err
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(in.Shape...), in.Data)
	if err != nil {
		return backend.Tensor{}, fmt.Errorf("%w: build input tensor: %v", backend.ErrInference, err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := b.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return backend.Tensor{}, fmt.Errorf("%w: %v", backend.ErrInference, err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return backend.Tensor{}, fmt.Errorf("%w: session produced non-float32 output %q", backend.ErrInference, b.outputName)
	}

	out := backend.Tensor{
		Shape: append([]int64(nil), outputTensor.GetShape()...),
		Data:  append([]float32(nil), outputTensor.GetData()...),
	}
	return out, nil
}

// Close destroys the session. The shared environment stays up.
func (b *Backend) Close() error {
	b.session.Destroy()
	return nil
}
