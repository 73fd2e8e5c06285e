// Package cube provides a minimal labeled multi-dimensional array: named
// dimensions with ordered coordinate labels over a dense row-major value
// buffer. It is the in-memory exchange format between processes, not a
// general tensor-computation engine.
package cube

import (
	"fmt"
)

// DimKind classifies a dimension, following the openEO dimension types.
type DimKind string

const (
	DimKindSpatial  DimKind = "spatial"
	DimKindTemporal DimKind = "temporal"
	DimKindBands    DimKind = "bands"
	DimKindOther    DimKind = "other"
)

// Dim is a named axis with an ordered set of coordinate labels.
type Dim struct {
	Name   string
	Kind   DimKind
	Labels []string
}

// Len returns the number of coordinate labels on the dimension.
func (d Dim) Len() int {
	return len(d.Labels)
}

// Cube is a dense float32 array indexed by the cross-product of its
// dimension labels. Values are stored row-major in dimension order.
type Cube struct {
	dims   []Dim
	values []float32
}

// New creates a cube from dimensions and a row-major value buffer.
// Dimension names must be unique and the buffer length must equal the
// product of the per-dimension label counts.
func New(dims []Dim, values []float32) (*Cube, error) {
	seen := make(map[string]bool, len(dims))
	size := 1
	for _, d := range dims {
		if d.Name == "" {
			return nil, fmt.Errorf("cube: dimension with empty name")
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("cube: duplicate dimension name %q", d.Name)
		}
		seen[d.Name] = true
		if d.Len() == 0 {
			return nil, fmt.Errorf("cube: dimension %q has no labels", d.Name)
		}
		size *= d.Len()
	}

	if len(values) != size {
		return nil, fmt.Errorf("cube: have %d values, dimension shape requires %d", len(values), size)
	}

	return &Cube{dims: dims, values: values}, nil
}

// Dims returns the cube's dimensions in order.
func (c *Cube) Dims() []Dim {
	return c.dims
}

// DimIndex returns the position of the named dimension, or -1.
func (c *Cube) DimIndex(name string) int {
	for i, d := range c.dims {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Shape returns the label count per dimension, in dimension order.
func (c *Cube) Shape() []int {
	shape := make([]int, len(c.dims))
	for i, d := range c.dims {
		shape[i] = d.Len()
	}
	return shape
}

// Size returns the total number of values.
func (c *Cube) Size() int {
	return len(c.values)
}

// Values returns the row-major value buffer. The buffer is shared, not
// copied.
func (c *Cube) Values() []float32 {
	return c.values
}

// Strides returns the row-major stride per dimension.
func (c *Cube) Strides() []int {
	strides := make([]int, len(c.dims))
	stride := 1
	for i := len(c.dims) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= c.dims[i].Len()
	}
	return strides
}

// At returns the value at the given multi-index (one index per dimension,
// in dimension order).
func (c *Cube) At(idx ...int) (float32, error) {
	if len(idx) != len(c.dims) {
		return 0, fmt.Errorf("cube: got %d indices for %d dimensions", len(idx), len(c.dims))
	}

	offset := 0
	strides := c.Strides()
	for i, x := range idx {
		if x < 0 || x >= c.dims[i].Len() {
			return 0, fmt.Errorf("cube: index %d out of range for dimension %q (%d labels)", x, c.dims[i].Name, c.dims[i].Len())
		}
		offset += x * strides[i]
	}

	return c.values[offset], nil
}
