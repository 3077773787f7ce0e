// Package fetch retrieves raw registry files over HTTP with on-disk
// caching. The transform core never performs I/O; only a source's fetch
// step goes through this package.
package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"epipulse/internal/errors"
)

// Fetcher downloads remote files into a cache directory. Downloads are
// rate limited so repeated pipeline runs stay polite to registry hosts.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Config holds fetcher settings.
type Config struct {
	CacheDir string
	Timeout  time.Duration
	// RequestsPerSecond caps the download rate across all sources.
	RequestsPerSecond float64
}

// DefaultConfig returns fetcher settings suitable for registry drops.
func DefaultConfig(cacheDir string) Config {
	return Config{
		CacheDir:          cacheDir,
		Timeout:           5 * time.Minute,
		RequestsPerSecond: 1,
	}
}

// New creates a fetcher. A nil logger falls back to the default.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		cacheDir: cfg.CacheDir,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:   logger,
	}
}

// Fetch downloads the given URL into the cache and returns the local path.
// A previously cached copy is reused without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	path, err := f.cachePath(rawURL)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		f.logger.InfoContext(ctx, "using cached download",
			slog.String("url", rawURL),
			slog.String("path", path))
		return path, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", errors.NewNetworkError("rate limit wait interrupted", err)
	}

	f.logger.InfoContext(ctx, "downloading registry file", slog.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.NewNetworkError("failed to build request", err).
			WithContext("url", rawURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.NewNetworkError("download failed", err).
			WithContext("url", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewNetworkError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).
			WithContext("url", rawURL)
	}

	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		return "", errors.NewStorageError("failed to create cache directory", err)
	}

	// Write to a temp file first so a partial download never looks cached.
	tmp, err := os.CreateTemp(f.cacheDir, "download-*")
	if err != nil {
		return "", errors.NewStorageError("failed to create temp file", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.NewStorageError("failed to write download", err).
			WithContext("url", rawURL)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.NewStorageError("failed to close temp file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", errors.NewStorageError("failed to move download into cache", err)
	}

	f.logger.InfoContext(ctx, "download cached",
		slog.String("url", rawURL),
		slog.String("path", path))

	return path, nil
}

// cachePath derives a content-addressed cache location from the URL,
// preserving the extension so readers can dispatch on it.
func (f *Fetcher) cachePath(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.NewValidationError("invalid download URL").
			WithContext("url", rawURL)
	}
	sum := sha1.Sum([]byte(rawURL))
	name := hex.EncodeToString(sum[:]) + filepath.Ext(parsed.Path)
	return filepath.Join(f.cacheDir, name), nil
}
