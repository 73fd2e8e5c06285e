package stac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelAsset(href string) Asset {
	return Asset{Href: href, Roles: []string{"data", RoleModel}}
}

func TestResolveModelAsset_SingleCandidate(t *testing.T) {
	assets := map[string]Asset{
		"thumbnail": {Href: "https://example.com/thumb.png", Roles: []string{"thumbnail"}},
		"model":     modelAsset("https://example.com/weights.onnx"),
	}

	key, asset, err := ResolveModelAsset(assets, "")
	require.NoError(t, err)
	assert.Equal(t, "model", key)
	assert.Equal(t, "https://example.com/weights.onnx", asset.Href)
}

func TestResolveModelAsset_NoCandidate(t *testing.T) {
	assets := map[string]Asset{
		"thumbnail": {Href: "https://example.com/thumb.png", Roles: []string{"thumbnail"}},
	}

	_, _, err := ResolveModelAsset(assets, "")
	assert.ErrorIs(t, err, ErrModelAssetNotFound)
}

func TestResolveModelAsset_Ambiguous(t *testing.T) {
	assets := map[string]Asset{
		"weights-a": modelAsset("https://example.com/a.onnx"),
		"weights-b": modelAsset("https://example.com/b.onnx"),
	}

	_, _, err := ResolveModelAsset(assets, "")
	assert.ErrorIs(t, err, ErrAmbiguousModelAsset)
}

func TestResolveModelAsset_ExplicitName(t *testing.T) {
	assets := map[string]Asset{
		"weights-a": modelAsset("https://example.com/a.onnx"),
		"weights-b": modelAsset("https://example.com/b.onnx"),
	}

	key, asset, err := ResolveModelAsset(assets, "weights-b")
	require.NoError(t, err)
	assert.Equal(t, "weights-b", key)
	assert.Equal(t, "https://example.com/b.onnx", asset.Href)
}

func TestResolveModelAsset_ExplicitNameAbsent(t *testing.T) {
	assets := map[string]Asset{
		"model": modelAsset("https://example.com/weights.onnx"),
	}

	_, _, err := ResolveModelAsset(assets, "weights.onnx")
	assert.ErrorIs(t, err, ErrModelAssetNotFound)
}

func TestResolveModelAsset_ExplicitNameRoleMismatch(t *testing.T) {
	assets := map[string]Asset{
		"model":     modelAsset("https://example.com/weights.onnx"),
		"thumbnail": {Href: "https://example.com/thumb.png", Roles: []string{"thumbnail"}},
	}

	_, _, err := ResolveModelAsset(assets, "thumbnail")
	assert.ErrorIs(t, err, ErrModelAssetRoleMismatch)
}
