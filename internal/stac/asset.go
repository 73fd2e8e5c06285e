package stac

import "fmt"

// ResolveModelAsset selects the item asset holding the model artifact.
//
// With an explicit name the named asset is returned, failing when it is
// absent or lacks the mlm:model role. Without a name the single asset
// carrying the role is returned; zero candidates or more than one are
// errors (the caller must disambiguate).
func ResolveModelAsset(assets map[string]Asset, name string) (string, Asset, error) {
	candidates := make(map[string]Asset, len(assets))
	for key, asset := range assets {
		if asset.HasRole(RoleModel) {
			candidates[key] = asset
		}
	}

	if name != "" {
		if _, ok := assets[name]; !ok {
			return "", Asset{}, fmt.Errorf("%w: no asset named %q", ErrModelAssetNotFound, name)
		}
		asset, ok := candidates[name]
		if !ok {
			return "", Asset{}, fmt.Errorf("%w: asset %q lacks role %q", ErrModelAssetRoleMismatch, name, RoleModel)
		}
		return name, asset, nil
	}

	switch len(candidates) {
	case 0:
		return "", Asset{}, fmt.Errorf("%w: item has no asset with role %q", ErrModelAssetNotFound, RoleModel)
	case 1:
		for key, asset := range candidates {
			return key, asset, nil
		}
	}

	return "", Asset{}, fmt.Errorf("%w: %d assets carry role %q", ErrAmbiguousModelAsset, len(candidates), RoleModel)
}
