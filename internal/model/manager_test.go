package model

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonas-hurst/openeo-ml-go/internal/backend"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

type fakeRuntime struct {
	closed atomic.Bool
}

func (f *fakeRuntime) Kind() backend.Kind {
	return backend.KindONNX
}

func (f *fakeRuntime) Run(ctx context.Context, in backend.Tensor) (backend.Tensor, error) {
	if f.closed.Load() {
		return backend.Tensor{}, errors.New("run on closed runtime")
	}
	return in, nil
}

func (f *fakeRuntime) Close() error {
	f.closed.Store(true)
	return nil
}

// writeItem writes a valid MLM item whose model assets point at a real
// temp file, and returns its path.
func writeItem(t *testing.T, framework string, dataType string, assetKeys ...string) string {
	t.Helper()
	dir := t.TempDir()

	artifact := filepath.Join(dir, "weights.bin")
	require.NoError(t, os.WriteFile(artifact, []byte("weights"), 0o644))

	assets := map[string]any{}
	for _, key := range assetKeys {
		assets[key] = map[string]any{
			"href":  artifact,
			"roles": []any{"mlm:model"},
		}
	}

	item := map[string]any{
		"type":         "Feature",
		"stac_version": "1.0.0",
		"id":           "unit-model",
		"stac_extensions": []any{
			"https://stac-extensions.github.io/mlm/v1.4.0/schema.json",
		},
		"properties": map[string]any{
			"mlm:framework": framework,
			"mlm:input": []any{
				map[string]any{
					"name": "input",
					"input": map[string]any{
						"shape":     []any{-1, 2},
						"dim_order": []any{"batch", "band"},
						"data_type": dataType,
					},
				},
			},
			"mlm:output": []any{
				map[string]any{
					"name": "output",
					"result": map[string]any{
						"shape":     []any{-1, 1},
						"dim_order": []any{"batch", "class"},
						"data_type": dataType,
					},
				},
			},
		},
		"assets": assets,
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	path := filepath.Join(dir, "item.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestManager(t *testing.T, calls *atomic.Int32) *Manager {
	t.Helper()

	reg := backend.NewRegistry()
	reg.Register(backend.KindONNX, func(path string, desc *stac.Descriptor, opts map[string]any) (backend.Backend, error) {
		if calls != nil {
			calls.Add(1)
		}
		return &fakeRuntime{}, nil
	})

	m, err := NewManager(reg, ManagerOptions{CacheDir: t.TempDir()})
	require.NoError(t, err)
	return m
}

func TestLoad_AutoSelectsSoleModelAsset(t *testing.T) {
	m := newTestManager(t, nil)
	uri := writeItem(t, "ONNX", "float32", "model")

	h, err := m.Load(context.Background(), uri, "")
	require.NoError(t, err)
	assert.Equal(t, "model", h.Asset)
	assert.Equal(t, backend.KindONNX, h.Kind)
	assert.NotEmpty(t, h.ID)
}

func TestLoad_CachesHandlePerURIAndAsset(t *testing.T) {
	var calls atomic.Int32
	m := newTestManager(t, &calls)
	uri := writeItem(t, "ONNX", "float32", "model")

	h1, err := m.Load(context.Background(), uri, "")
	require.NoError(t, err)
	h2, err := m.Load(context.Background(), uri, "")
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoad_ConcurrentLoadsShareOneFlight(t *testing.T) {
	var calls atomic.Int32
	m := newTestManager(t, &calls)
	uri := writeItem(t, "ONNX", "float32", "model")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Load(context.Background(), uri, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestLoad_DistinctAssetsGetDistinctHandles(t *testing.T) {
	m := newTestManager(t, nil)
	uri := writeItem(t, "ONNX", "float32", "weights-a", "weights-b")

	_, err := m.Load(context.Background(), uri, "")
	assert.ErrorIs(t, err, stac.ErrAmbiguousModelAsset)

	ha, err := m.Load(context.Background(), uri, "weights-a")
	require.NoError(t, err)
	hb, err := m.Load(context.Background(), uri, "weights-b")
	require.NoError(t, err)

	assert.NotSame(t, ha, hb)
}

func TestLoad_NamedAssetAbsent(t *testing.T) {
	m := newTestManager(t, nil)
	uri := writeItem(t, "ONNX", "float32", "model")

	_, err := m.Load(context.Background(), uri, "weights.onnx")
	assert.ErrorIs(t, err, stac.ErrModelAssetNotFound)
}

func TestLoad_UnsupportedBackendNotCached(t *testing.T) {
	m := newTestManager(t, nil)
	uri := writeItem(t, "PyTorch", "float32", "model")

	_, err := m.Load(context.Background(), uri, "")
	assert.ErrorIs(t, err, backend.ErrUnsupportedBackend)
	assert.Equal(t, 0, m.handles.Len())

	_, err = m.Load(context.Background(), uri, "")
	assert.ErrorIs(t, err, backend.ErrUnsupportedBackend)
}

func TestLoad_ArtifactTypeMismatch(t *testing.T) {
	m := newTestManager(t, nil)
	uri := writeItem(t, "ONNX", "float32", "model")

	data, err := os.ReadFile(uri)
	require.NoError(t, err)
	var item map[string]any
	require.NoError(t, json.Unmarshal(data, &item))
	asset := item["assets"].(map[string]any)["model"].(map[string]any)
	asset["mlm:artifact_type"] = "torch.save"
	data, err = json.Marshal(item)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(uri, data, 0o644))

	_, err = m.Load(context.Background(), uri, "")
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_RejectsNonFloat32Input(t *testing.T) {
	m := newTestManager(t, nil)
	uri := writeItem(t, "ONNX", "float64", "model")

	_, err := m.Load(context.Background(), uri, "")
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_RejectsUnsafeURI(t *testing.T) {
	m := newTestManager(t, nil)

	_, err := m.Load(context.Background(), `/tmp/item".json`, "")
	assert.ErrorIs(t, err, ErrArtifactUnreachable)
}

func TestLoad_MissingItemFile(t *testing.T) {
	m := newTestManager(t, nil)

	_, err := m.Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"), "")
	assert.ErrorIs(t, err, ErrArtifactUnreachable)
}

func TestLoad_EvictedHandleStaysRunnable(t *testing.T) {
	var runtimes []*fakeRuntime
	reg := backend.NewRegistry()
	reg.Register(backend.KindONNX, func(path string, desc *stac.Descriptor, opts map[string]any) (backend.Backend, error) {
		rt := &fakeRuntime{}
		runtimes = append(runtimes, rt)
		return rt, nil
	})

	m, err := NewManager(reg, ManagerOptions{CacheDir: t.TempDir(), HandleCacheSize: 1})
	require.NoError(t, err)

	uriA := writeItem(t, "ONNX", "float32", "model")
	uriB := writeItem(t, "ONNX", "float32", "model")

	ha, err := m.Load(context.Background(), uriA, "")
	require.NoError(t, err)
	_, err = m.Load(context.Background(), uriB, "")
	require.NoError(t, err)
	assert.Equal(t, 1, m.handles.Len())

	// The cache dropped ha, but the caller still holds it.
	_, err = ha.Run(context.Background(), backend.Tensor{Shape: []int64{1, 2}, Data: []float32{1, 2}})
	require.NoError(t, err)

	m.Close()
	for _, rt := range runtimes {
		assert.True(t, rt.closed.Load())
	}
}

func TestManager_CloseClosesCachedHandles(t *testing.T) {
	reg := backend.NewRegistry()
	rt := &fakeRuntime{}
	reg.Register(backend.KindONNX, func(path string, desc *stac.Descriptor, opts map[string]any) (backend.Backend, error) {
		return rt, nil
	})

	m, err := NewManager(reg, ManagerOptions{CacheDir: t.TempDir()})
	require.NoError(t, err)

	uri := writeItem(t, "ONNX", "float32", "model")
	_, err = m.Load(context.Background(), uri, "")
	require.NoError(t, err)

	m.Close()
	assert.True(t, rt.closed.Load())
}
