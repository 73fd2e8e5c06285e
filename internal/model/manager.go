// Package model loads model artifacts referenced by STAC MLM items and
// manages the lifecycle of the resulting runtime handles.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jonas-hurst/openeo-ml-go/internal/backend"
	"github.com/jonas-hurst/openeo-ml-go/internal/stac"
)

const defaultHandleCacheSize = 8

// uriPattern restricts accepted URIs: no control characters, no quote
// characters.
var uriPattern = regexp.MustCompile("^[^\x00-\x1f\x7f'\"`]+$")

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// CacheDir is where remote artifacts are downloaded to.
	CacheDir string

	// HandleCacheSize bounds how many handles the cache returns without
	// reloading. Evicted handles stay valid until Close. Zero selects
	// the default.
	HandleCacheSize int

	// BackendOptions carries per-kind runtime tuning, keyed by kind.
	BackendOptions map[string]map[string]any
}

// Manager resolves STAC MLM items into runnable model handles. Handles are
// cached per (uri, asset) pair; concurrent loads of the same pair share one
// in-flight load while distinct pairs load in parallel. Cache eviction only
// bounds how many loads are deduplicated: an evicted handle stays runnable
// until Manager.Close releases it.
type Manager struct {
	backends    *backend.Registry
	cacheDir    string
	backendOpts map[string]map[string]any
	handles     *lru.Cache[string, *Handle]
	group       singleflight.Group

	mu     sync.Mutex
	loaded []*Handle
}

// NewManager creates a manager loading through the given backend registry.
func NewManager(backends *backend.Registry, opts ManagerOptions) (*Manager, error) {
	size := opts.HandleCacheSize
	if size <= 0 {
		size = defaultHandleCacheSize
	}

	handles, err := lru.New[string, *Handle](size)
	if err != nil {
		return nil, fmt.Errorf("create handle cache: %w", err)
	}

	return &Manager{
		backends:    backends,
		cacheDir:    opts.CacheDir,
		backendOpts: opts.BackendOptions,
		handles:     handles,
	}, nil
}

// Load resolves the STAC item at uri, selects its model asset (assetName
// may be empty for auto-selection) and returns a ready-to-run handle.
// Repeated loads of the same (uri, asset) pair return the cached handle.
func (m *Manager) Load(ctx context.Context, uri, assetName string) (*Handle, error) {
	if !uriPattern.MatchString(uri) {
		return nil, fmt.Errorf("%w: uri contains control or quote characters", ErrArtifactUnreachable)
	}

	key := uri + "\x1f" + assetName
	if h, ok := m.handles.Get(key); ok {
		return h, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent load may have
		// populated the cache already.
		if h, ok := m.handles.Get(key); ok {
			return h, nil
		}

		h, err := m.load(ctx, uri, assetName)
		if err != nil {
			return nil, err
		}

		m.handles.Add(key, h)
		return h, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Handle), nil
}

func (m *Manager) load(ctx context.Context, uri, assetName string) (*Handle, error) {
	data, err := m.fetchItem(ctx, uri)
	if err != nil {
		return nil, err
	}

	desc, err := stac.ParseItem(data)
	if err != nil {
		return nil, err
	}

	assetKey, asset, err := stac.ResolveModelAsset(desc.Assets, assetName)
	if err != nil {
		return nil, err
	}

	kind, err := backend.KindForFramework(desc.Framework)
	if err != nil {
		return nil, err
	}

	if !kind.AcceptsArtifactType(asset.ArtifactType) {
		return nil, fmt.Errorf(
			"%w: artifact type %q is not runnable on the %s backend",
			ErrModelLoad, asset.ArtifactType, kind,
		)
	}

	for _, in := range desc.Inputs {
		if in.Tensor.DataType != "float32" {
			return nil, fmt.Errorf(
				"%w: input %q has data type %q, runtimes only take float32",
				ErrModelLoad, in.Name, in.Tensor.DataType,
			)
		}
	}

	path, err := m.localArtifact(ctx, asset.Href)
	if err != nil {
		return nil, err
	}

	rt, err := m.backends.New(kind, path, desc, m.backendOpts[string(kind)])
	if err != nil {
		if errors.Is(err, backend.ErrUnsupportedBackend) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	h := &Handle{
		ID:         uuid.NewString(),
		URI:        uri,
		Asset:      assetKey,
		Kind:       kind,
		descriptor: desc,
		runtime:    rt,
	}

	m.mu.Lock()
	m.loaded = append(m.loaded, h)
	m.mu.Unlock()

	slog.Info("Model loaded", "id", h.ID, "uri", uri, "asset", assetKey, "kind", kind)
	return h, nil
}

// Close releases every handle the manager ever loaded, cached or evicted.
func (m *Manager) Close() {
	m.handles.Purge()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.loaded {
		if err := h.Close(); err != nil {
			slog.Warn("Failed to close model handle", "id", h.ID, "error", err)
		}
	}
	m.loaded = nil
}
