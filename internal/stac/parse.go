package stac

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed mlm-item.schema.json
var itemSchemaJSON string

var itemSchema = jsonschema.MustCompileString("mlm-item.schema.json", itemSchemaJSON)

// mlmExtensionPattern matches the schema URL the MLM extension registers in
// a STAC Item's stac_extensions list, any version.
var mlmExtensionPattern = regexp.MustCompile(
	`^https://stac-extensions\.github\.io/mlm/v(\d+\.){0,2}\d*/schema\.json$`,
)

// ParseItem parses and validates STAC Item JSON into a model Descriptor.
// It is a pure function of its input; any structural or MLM-extension
// defect is reported as ErrInvalidModelMetadata.
func ParseItem(data []byte) (*Descriptor, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidModelMetadata, err)
	}

	if err := itemSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelMetadata, err)
	}

	var item rawItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelMetadata, err)
	}

	if !declaresMLMExtension(item.StacExtensions) {
		return nil, fmt.Errorf("%w: item does not declare the MLM stac extension", ErrInvalidModelMetadata)
	}

	desc := &Descriptor{
		Name:                item.Properties.Name,
		Framework:           strings.ToLower(strings.TrimSpace(item.Properties.Framework)),
		BatchSizeSuggestion: item.Properties.BatchSizeSuggestion,
		Assets:              item.Assets,
	}

	for _, in := range item.Properties.Input {
		if in.Input == nil {
			return nil, fmt.Errorf("%w: model input %q has no tensor spec", ErrInvalidModelMetadata, in.Name)
		}
		if err := checkTensorSpec(*in.Input, in.Name); err != nil {
			return nil, err
		}

		bands, err := in.bandNames()
		if err != nil {
			return nil, fmt.Errorf("%w: model input %q has malformed bands: %v", ErrInvalidModelMetadata, in.Name, err)
		}

		desc.Inputs = append(desc.Inputs, InputSpec{
			Name:    in.Name,
			Tensor:  *in.Input,
			Bands:   bands,
			Scaling: in.ValueScaling,
		})
	}

	for _, out := range item.Properties.Output {
		if out.Result == nil {
			return nil, fmt.Errorf("%w: model output %q has no result spec", ErrInvalidModelMetadata, out.Name)
		}
		if err := checkTensorSpec(*out.Result, out.Name); err != nil {
			return nil, err
		}

		desc.Outputs = append(desc.Outputs, OutputSpec{
			Name:   out.Name,
			Tensor: *out.Result,
		})
	}

	return desc, nil
}

func declaresMLMExtension(extensions []string) bool {
	for _, ext := range extensions {
		if mlmExtensionPattern.MatchString(ext) {
			return true
		}
	}
	return false
}

func checkTensorSpec(spec TensorSpec, name string) error {
	if len(spec.Shape) != len(spec.DimOrder) {
		return fmt.Errorf(
			"%w: tensor spec %q has %d shape entries but %d dim_order entries",
			ErrInvalidModelMetadata, name, len(spec.Shape), len(spec.DimOrder),
		)
	}

	for i, n := range spec.Shape {
		if n == 0 || n < -1 {
			return fmt.Errorf(
				"%w: tensor spec %q has invalid length %d for axis %q",
				ErrInvalidModelMetadata, name, n, spec.DimOrder[i],
			)
		}
	}

	return nil
}
