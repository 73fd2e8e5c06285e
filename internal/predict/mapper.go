// Package predict maps labeled data cubes onto model tensors, dispatches
// inference batches and reassembles the results into an output cube.
package predict

import (
	"fmt"
	"strings"

	"github.com/jonas-hurst/openeo-ml-go/internal/cube"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

// batchAxis is the model input axis name marking the batch dimension.
const batchAxis = "batch"

// dimSynonyms groups the dimension names that refer to the same axis
// across models and cubes (a model may say "t" where the cube says "time").
var dimSynonyms = [][]string{
	{"time", "times", "t", "date", "dates", "DATE"},
	{"band", "bands", "b", "channel", "channels"},
	{"x", "lon", "lng", "longitude"},
	{"y", "lat", "latitude"},
	{"batch", "batches"},
}

// sameAxis reports whether two dimension names refer to the same axis.
func sameAxis(a, b string) bool {
	if a == b {
		return true
	}
	for _, group := range dimSynonyms {
		inGroup := func(name string) bool {
			for _, s := range group {
				if s == name {
					return true
				}
			}
			return false
		}
		if inGroup(a) && inGroup(b) {
			return true
		}
	}
	return false
}

func isBatchAxis(name string) bool {
	return sameAxis(name, batchAxis)
}

// Sample is one model input vector together with the batch key that
// locates it: the labels of the retained dimensions, in dimension order.
type Sample struct {
	Key    []string
	Values []float32
}

// plan is the resolved mapping between a cube and a model's input layout.
type plan struct {
	consumed    []cube.Dim // flatten order of each sample
	consumedIdx []int
	srcIdx      [][]int    // per consumed dim, source label position per output position
	retained    []cube.Dim // original relative order
	retainedIdx []int
	sampleLen   int
}

// buildPlan decides which cube dimensions the model consumes.
//
// Explicit dimension names must all exist on the cube; they are consumed
// in the model's input axis order where the names correspond to model
// axes, otherwise in the given order. Without names, the cube dimensions
// matching the model's declared input axes are consumed and everything
// else is passed through as a batch axis.
func buildPlan(dc *cube.Cube, dimensions []string, desc *stac.Descriptor) (*plan, error) {
	p := &plan{sampleLen: 1}

	if len(dimensions) > 0 {
		for _, name := range dimensions {
			idx := dc.DimIndex(name)
			if idx < 0 {
				return nil, fmt.Errorf("%w: %q", ErrDimensionNotAvailable, name)
			}
			p.consumed = append(p.consumed, dc.Dims()[idx])
			p.consumedIdx = append(p.consumedIdx, idx)
		}
		p.alignToModelAxes(desc)
	} else {
		for _, axis := range desc.Inputs[0].Tensor.DimOrder {
			if isBatchAxis(axis) {
				continue
			}

			idx := -1
			for i, d := range dc.Dims() {
				if sameAxis(axis, d.Name) {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, fmt.Errorf("%w: model input axis %q has no counterpart on the cube", ErrDimensionNotAvailable, axis)
			}

			p.consumed = append(p.consumed, dc.Dims()[idx])
			p.consumedIdx = append(p.consumedIdx, idx)
		}
	}

	p.srcIdx = make([][]int, len(p.consumed))
	for i, d := range p.consumed {
		idx := make([]int, d.Len())
		for j := range idx {
			idx[j] = j
		}
		p.srcIdx[i] = idx
	}

	if err := p.selectBands(desc); err != nil {
		return nil, err
	}

	if err := checkModelFit(p.consumed, desc); err != nil {
		return nil, err
	}

	inConsumed := make(map[string]bool, len(p.consumed))
	for _, d := range p.consumed {
		inConsumed[d.Name] = true
	}
	for i, d := range dc.Dims() {
		if inConsumed[d.Name] {
			continue
		}
		p.retained = append(p.retained, d)
		p.retainedIdx = append(p.retainedIdx, i)
	}

	for _, d := range p.consumed {
		p.sampleLen *= d.Len()
	}

	return p, nil
}

// alignToModelAxes reorders explicitly named dimensions into the model's
// input axis order, so callers may name dimensions in any order as long as
// each one corresponds to a model axis. When the correspondence is not
// one-to-one the given order stands.
func (p *plan) alignToModelAxes(desc *stac.Descriptor) {
	if desc == nil || len(desc.Inputs) == 0 {
		return
	}

	var axes []string
	for _, axis := range desc.Inputs[0].Tensor.DimOrder {
		if !isBatchAxis(axis) {
			axes = append(axes, axis)
		}
	}
	if len(axes) != len(p.consumed) {
		return
	}

	ordered := make([]cube.Dim, len(axes))
	orderedIdx := make([]int, len(axes))
	used := make([]bool, len(p.consumed))
	for i, axis := range axes {
		found := -1
		for j, d := range p.consumed {
			if !used[j] && sameAxis(axis, d.Name) {
				found = j
				break
			}
		}
		if found < 0 {
			return
		}
		used[found] = true
		ordered[i] = p.consumed[found]
		orderedIdx[i] = p.consumedIdx[found]
	}

	p.consumed = ordered
	p.consumedIdx = orderedIdx
}

// selectBands narrows the consumed band axis to the bands the model
// declares, in the model's band order. A cube whose band axis lacks a
// declared band fails; extra cube bands are dropped. Models without
// declared bands take the axis as stored.
func (p *plan) selectBands(desc *stac.Descriptor) error {
	if desc == nil || len(desc.Inputs) == 0 || len(desc.Inputs[0].Bands) == 0 {
		return nil
	}
	bands := desc.Inputs[0].Bands

	pos := -1
	for i, d := range p.consumed {
		if sameAxis(d.Name, "band") {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	dim := p.consumed[pos]
	sel := make([]int, 0, len(bands))
	var missing []string
	for _, band := range bands {
		found := -1
		for j, label := range dim.Labels {
			if label == band {
				found = j
				break
			}
		}
		if found < 0 {
			missing = append(missing, band)
			continue
		}
		sel = append(sel, found)
	}
	if len(missing) > 0 {
		return fmt.Errorf(
			"%w: model requires bands %s on dimension %q",
			ErrBandNotAvailable, strings.Join(missing, ", "), dim.Name,
		)
	}

	p.consumed[pos] = cube.Dim{Name: dim.Name, Kind: dim.Kind, Labels: bands}
	p.srcIdx[pos] = sel
	return nil
}

// checkModelFit verifies the consumed dimensions satisfy the model's
// declared non-batch axes: same count, and fixed axis lengths must match.
func checkModelFit(consumed []cube.Dim, desc *stac.Descriptor) error {
	spec := desc.Inputs[0].Tensor

	var axes []string
	var lengths []int64
	for i, axis := range spec.DimOrder {
		if isBatchAxis(axis) {
			continue
		}
		axes = append(axes, axis)
		lengths = append(lengths, spec.Shape[i])
	}

	if len(axes) != len(consumed) {
		return fmt.Errorf(
			"%w: model consumes %d axes, %d dimensions given",
			ErrDimensionMismatch, len(axes), len(consumed),
		)
	}

	for i, d := range consumed {
		if lengths[i] > 0 && int64(d.Len()) != lengths[i] {
			return fmt.Errorf(
				"%w: model axis %q requires %d values, dimension %q has %d",
				ErrDimensionMismatch, axes[i], lengths[i], d.Name, d.Len(),
			)
		}
	}

	return nil
}

// samples extracts one input vector per combination of retained dimension
// labels, iterating row-major over the retained dimensions so outputs
// reassemble in the cube's original relative order. Within a sample the
// consumed dimensions are flattened row-major in consumption order.
func (p *plan) samples(dc *cube.Cube) []Sample {
	strides := dc.Strides()
	values := dc.Values()

	retainedCount := 1
	for _, d := range p.retained {
		retainedCount *= d.Len()
	}

	out := make([]Sample, 0, retainedCount)
	retainedIdx := make([]int, len(p.retained))
	consumedIdx := make([]int, len(p.consumed))

	for {
		base := 0
		key := make([]string, len(p.retained))
		for i, x := range retainedIdx {
			base += x * strides[p.retainedIdx[i]]
			key[i] = p.retained[i].Labels[x]
		}

		sample := make([]float32, 0, p.sampleLen)
		for i := range consumedIdx {
			consumedIdx[i] = 0
		}
		for {
			offset := base
			for i, x := range consumedIdx {
				offset += p.srcIdx[i][x] * strides[p.consumedIdx[i]]
			}
			sample = append(sample, values[offset])

			if !increment(consumedIdx, p.consumed) {
				break
			}
		}

		out = append(out, Sample{Key: key, Values: sample})

		if !increment(retainedIdx, p.retained) {
			break
		}
	}

	return out
}

// increment advances a multi-index row-major; false once it wraps around.
func increment(idx []int, dims []cube.Dim) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < dims[i].Len() {
			return true
		}
		idx[i] = 0
	}
	return false
}

// batchShape shapes a batch of n samples per the model's input axis order.
func (p *plan) batchShape(desc *stac.Descriptor, n int) []int64 {
	spec := desc.Inputs[0].Tensor

	shape := make([]int64, 0, len(spec.DimOrder))
	next := 0
	hasBatch := false
	for _, axis := range spec.DimOrder {
		if isBatchAxis(axis) {
			shape = append(shape, int64(n))
			hasBatch = true
			continue
		}
		shape = append(shape, int64(p.consumed[next].Len()))
		next++
	}

	if !hasBatch {
		shape = append([]int64{int64(n)}, shape...)
	}
	return shape
}

// assemble builds the output cube: retained dimensions verbatim plus one
// trailing predictions dimension with a label per output channel.
func (p *plan) assemble(outputs []float32, channels int) (*cube.Cube, error) {
	labels := make([]string, channels)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", i)
	}

	dims := make([]cube.Dim, 0, len(p.retained)+1)
	dims = append(dims, p.retained...)
	dims = append(dims, cube.Dim{
		Name:   "predictions",
		Kind:   cube.DimKindOther,
		Labels: labels,
	})

	return cube.New(dims, outputs)
}
