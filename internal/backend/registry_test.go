package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

// --- Mock types ---

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Kind() Kind {
	args := m.Called()
	return Kind(args.String(0))
}

func (m *MockBackend) Run(ctx context.Context, in Tensor) (Tensor, error) {
	args := m.Called(ctx, in)
	if out, ok := args.Get(0).(Tensor); ok {
		return out, args.Error(1)
	}
	return Tensor{}, args.Error(1)
}

func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Tests ---

func TestRegistry_RegisterAndNew(t *testing.T) {
	reg := NewRegistry()
	mockBackend := new(MockBackend)

	reg.Register(KindONNX, func(path string, desc *stac.Descriptor, opts map[string]any) (Backend, error) {
		assert.Equal(t, "model.onnx", path)
		return mockBackend, nil
	})

	got, err := reg.New(KindONNX, "model.onnx", &stac.Descriptor{}, nil)
	require.NoError(t, err)
	assert.Equal(t, mockBackend, got)
}

func TestRegistry_UnregisteredKind(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.New(KindTFLite, "model.tflite", &stac.Descriptor{}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestKindForFramework(t *testing.T) {
	kind, err := KindForFramework("ONNX")
	require.NoError(t, err)
	assert.Equal(t, KindONNX, kind)

	kind, err = KindForFramework("TensorFlow")
	require.NoError(t, err)
	assert.Equal(t, KindTFLite, kind)

	_, err = KindForFramework("pytorch")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestKind_AcceptsArtifactType(t *testing.T) {
	assert.True(t, KindONNX.AcceptsArtifactType(""))
	assert.True(t, KindONNX.AcceptsArtifactType("onnx"))
	assert.True(t, KindTFLite.AcceptsArtifactType("tflite"))
	assert.True(t, KindTFLite.AcceptsArtifactType("TensorFlow"))

	assert.False(t, KindONNX.AcceptsArtifactType("tflite"))
	assert.False(t, KindTFLite.AcceptsArtifactType("onnx"))
	assert.False(t, KindONNX.AcceptsArtifactType("torch.save"))
}

func TestTensor_NumElements(t *testing.T) {
	tensor := Tensor{Shape: []int64{2, 3, 4}}
	assert.Equal(t, int64(24), tensor.NumElements())
}
