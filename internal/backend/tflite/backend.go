// Package tflite runs models through the TensorFlow Lite interpreter.
package tflite

import (
	"context"
	"fmt"
	"sync"

	"github.com/mattn/go-tflite"

	"github.com/jonas-hurst/openeo-ml-go/internal/backend"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

const defaultThreads = 4

// Backend wraps one TFLite interpreter. The interpreter is not safe for
// concurrent invocation, so runs are serialized per handle.
type Backend struct {
	model   *tflite.Model
	options *tflite.InterpreterOptions
	interp  *tflite.Interpreter
	mu      sync.Mutex
}

// New builds a TFLite backend for the artifact at path. Matches
// backend.Factory.
func New(path string, desc *stac.Descriptor, opts map[string]any) (backend.Backend, error) {
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, fmt.Errorf("cannot load tflite model from %s", path)
	}

	options := tflite.NewInterpreterOptions()
	threads := defaultThreads
	if v, ok := opts["threads"].(int); ok && v > 0 {
		threads = v
	}
	options.SetNumThread(threads)

	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("cannot create tflite interpreter for %s", path)
	}

	return &Backend{
		model:   model,
		options: options,
		interp:  interp,
	}, nil
}

// Kind returns the runtime identifier.
func (b *Backend) Kind() backend.Kind {
	return backend.KindTFLite
}

// Run executes one batch through the interpreter, resizing the input
// tensor to the batch shape first.
func (b *Backend) Run(ctx context.Context, in backend.Tensor) (backend.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return backend.Tensor{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	shape := make([]int, len(in.Shape))
	for i, d := range in.Shape {
		shape[i] = int(d)
	}

	if status := b.interp.ResizeInputTensor(0, shape); status != tflite.OK {
		return backend.Tensor{}, fmt.Errorf("%w: resize input tensor to %v", backend.ErrInference, shape)
	}
	if status := b.interp.AllocateTensors(); status != tflite.OK {
		return backend.Tensor{}, fmt.Errorf("%w: allocate tensors", backend.ErrInference)
	}

	input := b.interp.GetInputTensor(0)
	if copied := copy(input.Float32s(), in.Data); copied != len(in.Data) {
		return backend.Tensor{}, fmt.Errorf("%w: input tensor holds %d values, batch has %d", backend.ErrInference, copied, len(in.Data))
	}

	if status := b.interp.Invoke(); status != tflite.OK {
		return backend.Tensor{}, fmt.Errorf("%w: interpreter invoke", backend.ErrInference)
	}

	output := b.interp.GetOutputTensor(0)
	outShape := make([]int64, output.NumDims())
	for i := range outShape {
		outShape[i] = int64(output.Dim(i))
	}

	out := backend.Tensor{
		Shape: outShape,
		Data:  append([]float32(nil), output.Float32s()...),
	}
	return out, nil
}

// Close tears down the interpreter and its model.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.interp.Delete()
	b.options.Delete()
	b.model.Delete()
	return nil
}
