package stac

import "errors"

// Error definitions for the stac package.
var (
	ErrInvalidModelMetadata   = errors.New("stac item does not carry valid ml-model metadata")
	ErrModelAssetNotFound     = errors.New("no matching model asset on stac item")
	ErrModelAssetRoleMismatch = errors.New("named asset does not carry the model role")
	ErrAmbiguousModelAsset    = errors.New("multiple model assets on stac item, model_asset must be given")
)
