package cube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ShapeMatchesValues(t *testing.T) {
	dims := []Dim{
		{Name: "time", Kind: DimKindTemporal, Labels: []string{"t0", "t1", "t2"}},
		{Name: "band", Kind: DimKindBands, Labels: []string{"red", "nir"}},
	}

	c, err := New(dims, make([]float32, 6))
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2}, c.Shape())
	assert.Equal(t, 6, c.Size())
}

func TestNew_ValueCountMismatch(t *testing.T) {
	dims := []Dim{
		{Name: "x", Kind: DimKindSpatial, Labels: []string{"0", "1"}},
	}

	_, err := New(dims, make([]float32, 3))
	assert.Error(t, err)
}

func TestNew_DuplicateDimensionName(t *testing.T) {
	dims := []Dim{
		{Name: "x", Kind: DimKindSpatial, Labels: []string{"0"}},
		{Name: "x", Kind: DimKindSpatial, Labels: []string{"0"}},
	}

	_, err := New(dims, make([]float32, 1))
	assert.Error(t, err)
}

func TestAt_RowMajorOrder(t *testing.T) {
	dims := []Dim{
		{Name: "time", Kind: DimKindTemporal, Labels: []string{"t0", "t1"}},
		{Name: "band", Kind: DimKindBands, Labels: []string{"red", "nir", "swir"}},
	}

	c, err := New(dims, []float32{0, 1, 2, 10, 11, 12})
	require.NoError(t, err)

	v, err := c.At(0, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(2), v)

	v, err = c.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(10), v)

	_, err = c.At(2, 0)
	assert.Error(t, err)
}

func TestDimIndex(t *testing.T) {
	dims := []Dim{
		{Name: "time", Kind: DimKindTemporal, Labels: []string{"t0"}},
		{Name: "band", Kind: DimKindBands, Labels: []string{"red"}},
	}

	c, err := New(dims, make([]float32, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, c.DimIndex("band"))
	assert.Equal(t, -1, c.DimIndex("missing"))
}

func TestStrides(t *testing.T) {
	dims := []Dim{
		{Name: "a", Kind: DimKindOther, Labels: []string{"0", "1"}},
		{Name: "b", Kind: DimKindOther, Labels: []string{"0", "1", "2"}},
		{Name: "c", Kind: DimKindOther, Labels: []string{"0", "1", "2", "3"}},
	}

	c, err := New(dims, make([]float32, 24))
	require.NoError(t, err)

	assert.Equal(t, []int{12, 4, 1}, c.Strides())
}
