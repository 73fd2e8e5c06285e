package predict

import (
	"fmt"

	"github.com/jonas-hurst/openeo-ml-go/internal/cube"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

// applyScaling rewrites sample values per the input spec's value_scaling.
// One entry scales everything uniformly; multiple entries scale per band
// and require a band axis among the consumed dimensions with a matching
// label count.
func applyScaling(desc *stac.Descriptor, samples []Sample, consumed []cube.Dim) error {
	scaling := desc.Inputs[0].Scaling
	if len(scaling) == 0 {
		return nil
	}

	if len(scaling) == 1 {
		for _, s := range samples {
			for i, v := range s.Values {
				scaled, err := scaleValue(v, scaling[0])
				if err != nil {
					return err
				}
				s.Values[i] = scaled
			}
		}
		return nil
	}

	bandPos := -1
	for i, d := range consumed {
		if sameAxis(d.Name, "band") {
			bandPos = i
			break
		}
	}
	if bandPos < 0 {
		return fmt.Errorf("%w: per-band value scaling requires a bands dimension", stac.ErrInvalidModelMetadata)
	}
	if consumed[bandPos].Len() != len(scaling) {
		return fmt.Errorf(
			"%w: %d value scaling entries for %d bands",
			stac.ErrInvalidModelMetadata, len(scaling), consumed[bandPos].Len(),
		)
	}

	// Row-major stride of the band axis within one flattened sample.
	stride := 1
	for i := bandPos + 1; i < len(consumed); i++ {
		stride *= consumed[i].Len()
	}
	bands := consumed[bandPos].Len()

	for _, s := range samples {
		for i, v := range s.Values {
			band := (i / stride) % bands
			scaled, err := scaleValue(v, scaling[band])
			if err != nil {
				return err
			}
			s.Values[i] = scaled
		}
	}

	return nil
}

func scaleValue(v float32, s stac.ValueScaling) (float32, error) {
	switch s.Type {
	case "min-max":
		if s.Minimum == nil || s.Maximum == nil || *s.Maximum == *s.Minimum {
			return 0, fmt.Errorf("%w: min-max scaling needs distinct minimum and maximum", stac.ErrInvalidModelMetadata)
		}
		return float32((float64(v) - *s.Minimum) / (*s.Maximum - *s.Minimum)), nil

	case "z-score":
		if s.Mean == nil || s.Stddev == nil || *s.Stddev == 0 {
			return 0, fmt.Errorf("%w: z-score scaling needs mean and a non-zero stddev", stac.ErrInvalidModelMetadata)
		}
		return float32((float64(v) - *s.Mean) / *s.Stddev), nil

	case "scale":
		if s.Value == nil {
			return 0, fmt.Errorf("%w: scale scaling needs a value", stac.ErrInvalidModelMetadata)
		}
		return float32(float64(v) * *s.Value), nil

	case "offset":
		if s.Value == nil {
			return 0, fmt.Errorf("%w: offset scaling needs a value", stac.ErrInvalidModelMetadata)
		}
		return float32(float64(v) + *s.Value), nil
	}

	return 0, fmt.Errorf("%w: unsupported value scaling type %q", stac.ErrInvalidModelMetadata, s.Type)
}
