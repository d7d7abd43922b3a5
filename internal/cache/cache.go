// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cache implements the on-disk, URL-addressed asset pool: downloads
// are committed atomically via renameio, and eviction trims the oldest
// files by modification time until the pool is back under its configured
// quota.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/danmao124/vobox-pi-player/internal/fsutil"
	"github.com/danmao124/vobox-pi-player/internal/log"
	"github.com/danmao124/vobox-pi-player/internal/metrics"
)

// ErrCache classifies asset-cache failures (download and eviction errors
// from spec.md §7's TransientNetworkError/EvictionError classes).
var ErrCache = errors.New("cache error")

const (
	connectTimeout = 5 * time.Second
	totalTimeout   = 20 * time.Second
)

// AssetCache is a size-capped, URL-addressed pool of downloaded files.
type AssetCache struct {
	dir        string
	maxBytes   int64
	httpClient *http.Client
}

// New creates an AssetCache rooted at dir, creating the directory if
// necessary. maxCacheMB is the eviction quota in whole megabytes.
func New(dir string, maxCacheMB int64) (*AssetCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create cache dir %s: %v", ErrCache, dir, err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
	}

	return &AssetCache{
		dir:      dir,
		maxBytes: maxCacheMB * 1024 * 1024,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   totalTimeout,
		},
	}, nil
}

// PathFor deterministically maps an asset URL to a local file path: the hex
// SHA-256 digest of the URL plus the dotted extension parsed from the URL's
// path, if any. This is pure and does not touch the filesystem.
func (c *AssetCache) PathFor(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse asset url %q: %v", ErrCache, rawURL, err)
	}

	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:])
	if ext := filepath.Ext(parsed.Path); ext != "" {
		name += ext
	}

	confined, err := fsutil.ConfineRelPath(c.dir, name)
	if err != nil {
		return "", fmt.Errorf("%w: confine cache path for %q: %v", ErrCache, rawURL, err)
	}
	return confined, nil
}

// GetOrFetch returns the local path for rawURL, downloading it first if the
// target file does not yet exist or is empty.
func (c *AssetCache) GetOrFetch(ctx context.Context, rawURL string) (string, error) {
	logger := log.WithComponentFromContext(ctx, "cache")

	localPath, err := c.PathFor(rawURL)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(localPath); err == nil && info.Size() > 0 {
		metrics.RecordCacheHit()
		return localPath, nil
	}

	metrics.RecordCacheMiss()
	logger.Debug().Str(log.FieldAssetURL, rawURL).Str(log.FieldCachePath, localPath).Msg("downloading asset")

	if err := c.download(ctx, rawURL, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

func (c *AssetCache) download(ctx context.Context, rawURL, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request for %q: %v", ErrCache, rawURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch %q: %v", ErrCache, rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fetch %q: unexpected status %d", ErrCache, rawURL, resp.StatusCode)
	}

	if err := writeAtomic(destPath, resp.Body); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrCache, rawURL, err)
	}
	return nil
}

// writeAtomic streams r into a pending file next to destPath and renames it
// into place only once fully written, so a partial download is never visible
// under destPath.
func writeAtomic(destPath string, r io.Reader) error {
	pendingFile, err := renameio.NewPendingFile(destPath)
	if err != nil {
		return err
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := io.Copy(pendingFile, r); err != nil {
		return err
	}
	return pendingFile.CloseAtomicallyReplace()
}
