// Package stac parses STAC Items carrying the MLM (machine-learning model)
// extension into normalized model descriptors, and resolves which item asset
// holds the runnable model artifact.
package stac

import (
	"encoding/json"
)

// RoleModel is the asset role marking an asset as the model artifact.
const RoleModel = "mlm:model"

// Asset is a STAC Item asset entry.
type Asset struct {
	Href         string   `json:"href"`
	Title        string   `json:"title,omitempty"`
	Type         string   `json:"type,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	ArtifactType string   `json:"mlm:artifact_type,omitempty"`
}

// HasRole reports whether the asset carries the given role.
func (a Asset) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TensorSpec describes one tensor axis layout of a model input or output.
// Shape entries of -1 are wildcards (any length permitted).
type TensorSpec struct {
	Shape    []int64  `json:"shape"`
	DimOrder []string `json:"dim_order"`
	DataType string   `json:"data_type"`
}

// ValueScaling describes how raw values are scaled before being fed to the
// model, per the MLM value_scaling object.
type ValueScaling struct {
	Type    string   `json:"type"`
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
	Mean    *float64 `json:"mean,omitempty"`
	Stddev  *float64 `json:"stddev,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}

// InputSpec is a normalized MLM model input.
type InputSpec struct {
	Name    string
	Tensor  TensorSpec
	Bands   []string
	Scaling []ValueScaling
}

// OutputSpec is a normalized MLM model output.
type OutputSpec struct {
	Name   string
	Tensor TensorSpec
}

// Descriptor is the normalized, immutable model metadata extracted from a
// STAC MLM item.
type Descriptor struct {
	Name                string
	Framework           string // normalized to lower case, e.g. "onnx"
	BatchSizeSuggestion int    // 0 when the item does not suggest one
	Inputs              []InputSpec
	Outputs             []OutputSpec
	Assets              map[string]Asset
}

// rawItem mirrors the subset of the STAC Item JSON this package reads.
type rawItem struct {
	Type           string           `json:"type"`
	StacVersion    string           `json:"stac_version"`
	ID             string           `json:"id"`
	StacExtensions []string         `json:"stac_extensions"`
	Properties     rawProperties    `json:"properties"`
	Assets         map[string]Asset `json:"assets"`
}

type rawProperties struct {
	Name                string       `json:"mlm:name"`
	Framework           string       `json:"mlm:framework"`
	BatchSizeSuggestion int          `json:"mlm:batch_size_suggestion"`
	Input               []rawModelIO `json:"mlm:input"`
	Output              []rawModelIO `json:"mlm:output"`
}

type rawModelIO struct {
	Name         string          `json:"name"`
	Input        *TensorSpec     `json:"input"`
	Result       *TensorSpec     `json:"result"`
	Bands        json.RawMessage `json:"bands"`
	ValueScaling []ValueScaling  `json:"value_scaling"`
}

// bandNames extracts band names from the MLM bands field, which holds
// either plain strings or model-band objects.
func (io rawModelIO) bandNames() ([]string, error) {
	if len(io.Bands) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(io.Bands, &entries); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			names = append(names, s)
			continue
		}

		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(e, &obj); err != nil {
			return nil, err
		}
		names = append(names, obj.Name)
	}

	return names, nil
}
