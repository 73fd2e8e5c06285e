package predict

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonas-hurst/openeo-ml-go/internal/backend"
	"github.com/jonas-hurst/openeo-ml-go/internal/cube"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

const defaultFallbackBatchSize = 12

// Model is the loaded-model capability the predictor needs. Satisfied by
// *model.Handle.
type Model interface {
	Descriptor() *stac.Descriptor
	Run(ctx context.Context, in backend.Tensor) (backend.Tensor, error)
}

// PredictorOptions configures a Predictor.
type PredictorOptions struct {
	// FallbackBatchSize is used when the model permits any batch length
	// but suggests none. Zero selects the default.
	FallbackBatchSize int
}

// Predictor orchestrates the dimension mapper and a model's runtime for
// one ml_predict invocation.
type Predictor struct {
	fallbackBatchSize int
}

// NewPredictor creates a predictor.
func NewPredictor(opts PredictorOptions) *Predictor {
	size := opts.FallbackBatchSize
	if size <= 0 {
		size = defaultFallbackBatchSize
	}
	return &Predictor{fallbackBatchSize: size}
}

// Predict applies the model to the cube. The consumed dimensions are
// removed and a predictions dimension is appended after the remaining
// dimensions. The first dimension or runtime error aborts the invocation;
// no partial cube is returned.
func (p *Predictor) Predict(ctx context.Context, dc *cube.Cube, m Model, dimensions []string) (*cube.Cube, error) {
	desc := m.Descriptor()
	if desc == nil || len(desc.Inputs) == 0 {
		return nil, fmt.Errorf("%w: model metadata declares no inputs", stac.ErrInvalidModelMetadata)
	}

	pl, err := buildPlan(dc, dimensions, desc)
	if err != nil {
		return nil, err
	}

	samples := pl.samples(dc)
	if err := applyScaling(desc, samples, pl.consumed); err != nil {
		return nil, err
	}

	batchSize := p.batchSize(desc)
	slog.Debug("Dispatching prediction",
		"samples", len(samples), "batch_size", batchSize, "sample_len", pl.sampleLen)

	outputs := make([]float32, 0, len(samples))
	channels := 0

	for start := 0; start < len(samples); start += batchSize {
		// Cancellation takes effect at batch boundaries only; a batch
		// in flight always runs to completion.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+batchSize, len(samples))
		chunk := samples[start:end]

		in := backend.Tensor{
			Shape: pl.batchShape(desc, len(chunk)),
			Data:  make([]float32, 0, len(chunk)*pl.sampleLen),
		}
		for _, s := range chunk {
			in.Data = append(in.Data, s.Values...)
		}

		out, err := m.Run(ctx, in)
		if err != nil {
			return nil, err
		}

		got := len(out.Data)
		if got == 0 || got%len(chunk) != 0 {
			return nil, fmt.Errorf(
				"%w: model returned %d values for %d samples",
				backend.ErrInference, got, len(chunk),
			)
		}

		perSample := got / len(chunk)
		if channels == 0 {
			channels = perSample
		} else if channels != perSample {
			return nil, fmt.Errorf(
				"%w: model returned %d values per sample after %d earlier",
				backend.ErrInference, perSample, channels,
			)
		}

		outputs = append(outputs, out.Data...)
	}

	return pl.assemble(outputs, channels)
}

// batchSize resolves the batch length from the input spec's batch axis and
// the item's batch size suggestion.
func (p *Predictor) batchSize(desc *stac.Descriptor) int {
	spec := desc.Inputs[0].Tensor
	suggestion := desc.BatchSizeSuggestion

	batchLen := int64(0)
	hasBatch := false
	for i, axis := range spec.DimOrder {
		if isBatchAxis(axis) {
			batchLen = spec.Shape[i]
			hasBatch = true
			break
		}
	}

	switch {
	case !hasBatch && suggestion > 0:
		return suggestion
	case !hasBatch:
		return 1
	case batchLen > 0:
		return int(batchLen)
	case suggestion > 0:
		return suggestion
	}
	return p.fallbackBatchSize
}
