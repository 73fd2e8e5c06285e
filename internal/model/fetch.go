package model

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jonas-hurst/openeo-ml-go/internal/xfs"
)

func isRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// fetchItem reads the STAC item JSON from a URL or local path.
func (m *Manager) fetchItem(ctx context.Context, uri string) ([]byte, error) {
	if isRemote(uri) {
		return m.get(ctx, uri)
	}

	data, err := os.ReadFile(xfs.ExpandTilde(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}
	return data, nil
}

// localArtifact returns a local path for the asset href, downloading remote
// artifacts into the cache directory. An artifact already present in the
// cache is reused without a fetch.
func (m *Manager) localArtifact(ctx context.Context, href string) (string, error) {
	if !isRemote(href) {
		local := xfs.ExpandTilde(href)
		if _, err := os.Stat(local); err != nil {
			return "", fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
		}
		return local, nil
	}

	dir := filepath.Join(m.cacheDir, sanitizePathComponent(href))
	dest := filepath.Join(dir, sanitizePathComponent(path.Base(href)))

	if _, err := os.Stat(dest); err == nil {
		slog.Debug("Artifact found in cache", "href", href, "path", dest)
		return dest, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}

	data, err := m.get(ctx, href)
	if err != nil {
		return "", err
	}

	// Write-then-rename so a failed download never looks like a cached
	// artifact. Each download gets its own temp file; concurrent fetches
	// of one href must not interleave writes.
	tmp, err := os.CreateTemp(dir, "download-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}

	slog.Info("Artifact downloaded", "href", href, "path", dest, "bytes", len(data))
	return dest, nil
}

func (m *Manager) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrArtifactUnreachable, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnreachable, err)
	}
	return data, nil
}

// sanitizePathComponent maps an arbitrary string onto a filesystem-safe
// cache path component.
func sanitizePathComponent(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, s)

	if mapped == "" {
		return "_"
	}
	return mapped
}
