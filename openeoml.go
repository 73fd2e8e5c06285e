// Package openeoml implements the openEO machine-learning processes
// load_ml_model and ml_predict: it resolves model artifacts from STAC MLM
// items and applies the loaded models to labeled data cubes.
package openeoml

import (
	"context"
	"fmt"

	"github.com/jonas-hurst/openeo-ml-go/internal/backend"
	"github.com/jonas-hurst/openeo-ml-go/internal/backend/onnx"
	"github.com/jonas-hurst/openeo-ml-go/internal/backend/tflite"
	"github.com/jonas-hurst/openeo-ml-go/internal/config"
	"github.com/jonas-hurst/openeo-ml-go/internal/cube"
	"github.com/jonas-hurst/openeo-ml-go/internal/model"
	"github.com/jonas-hurst/openeo-ml-go/internal/predict"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

// Core data types, re-exported for callers.
type (
	// DataCube is a labeled multi-dimensional array.
	DataCube = cube.Cube

	// Dim is a named data cube axis with ordered coordinate labels.
	Dim = cube.Dim

	// ModelHandle is an opaque loaded-and-ready-to-run model.
	ModelHandle = model.Handle
)

// Dimension kinds for constructing cubes.
const (
	DimKindSpatial  = cube.DimKindSpatial
	DimKindTemporal = cube.DimKindTemporal
	DimKindBands    = cube.DimKindBands
	DimKindOther    = cube.DimKindOther
)

// NewDataCube creates a cube from dimensions and row-major values.
func NewDataCube(dims []Dim, values []float32) (*DataCube, error) {
	return cube.New(dims, values)
}

// The process error taxonomy. Every failure from LoadMLModel and
// MLPredict wraps one of these.
var (
	ErrInvalidModelMetadata   = stac.ErrInvalidModelMetadata
	ErrModelAssetNotFound     = stac.ErrModelAssetNotFound
	ErrModelAssetRoleMismatch = stac.ErrModelAssetRoleMismatch
	ErrAmbiguousModelAsset    = stac.ErrAmbiguousModelAsset
	ErrArtifactUnreachable    = model.ErrArtifactUnreachable
	ErrUnsupportedBackend     = backend.ErrUnsupportedBackend
	ErrModelLoad              = model.ErrModelLoad
	ErrDimensionNotAvailable  = predict.ErrDimensionNotAvailable
	ErrDimensionMismatch      = predict.ErrDimensionMismatch
	ErrBandNotAvailable       = predict.ErrBandNotAvailable
	ErrInference              = backend.ErrInference
)

// Processes bundles the two ML processes over shared state: the backend
// registry, the model handle cache and the predictor. Safe for concurrent
// use across independent invocations.
type Processes struct {
	manager   *model.Manager
	predictor *predict.Predictor
}

// New creates a Processes instance with default configuration.
func New() (*Processes, error) {
	return NewFromConfig(config.Default())
}

// NewWithConfigFile creates a Processes instance from a YAML config file.
func NewWithConfigFile(path string) (*Processes, error) {
	cfg, err := config.LoadAndValidate(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg)
}

// NewFromConfig wires the registry, manager and predictor from a config.
func NewFromConfig(cfg *config.Config) (*Processes, error) {
	registry := backend.NewRegistry()
	registry.Register(backend.KindONNX, onnx.New)
	registry.Register(backend.KindTFLite, tflite.New)

	manager, err := model.NewManager(registry, model.ManagerOptions{
		CacheDir:        config.ResolveCacheDir(cfg),
		HandleCacheSize: cfg.Storage.ModelCacheSize,
		BackendOptions:  cfg.Backends,
	})
	if err != nil {
		return nil, fmt.Errorf("create model manager: %w", err)
	}

	return &Processes{
		manager: manager,
		predictor: predict.NewPredictor(predict.PredictorOptions{
			FallbackBatchSize: cfg.Predict.FallbackBatchSize,
		}),
	}, nil
}

// LoadMLModel implements the load_ml_model process: uri points to a STAC
// Item implementing the MLM extension, modelAsset optionally names the
// asset holding the model artifact (empty selects the sole model asset).
func (p *Processes) LoadMLModel(ctx context.Context, uri, modelAsset string) (*ModelHandle, error) {
	return p.manager.Load(ctx, uri, modelAsset)
}

// MLPredict implements the ml_predict process: the dimensions named in
// dimensions are consumed by the model and replaced by a trailing
// "predictions" dimension. An empty dimensions list consumes the cube
// dimensions matching the model's declared input axes.
func (p *Processes) MLPredict(ctx context.Context, data *DataCube, m *ModelHandle, dimensions []string) (*DataCube, error) {
	return p.predictor.Predict(ctx, data, m, dimensions)
}

// Close releases all cached model handles.
func (p *Processes) Close() {
	p.manager.Close()
}
