// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/danmao124/vobox-pi-player/internal/log"
	"github.com/danmao124/vobox-pi-player/internal/metrics"
)

type cacheEntry struct {
	path    string
	size    int64
	modTime int64
}

// Evict measures total cache usage and, if it exceeds the configured quota,
// deletes regular files in ascending modification-time order (oldest first),
// re-measuring after each deletion, until usage is at or below the quota.
func (c *AssetCache) Evict(ctx context.Context) error {
	logger := log.WithComponentFromContext(ctx, "cache")

	entries, total, err := c.scan()
	if err != nil {
		return fmt.Errorf("%w: scan cache dir: %v", ErrCache, err)
	}
	metrics.SetCacheBytes(total)

	if total <= c.maxBytes {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].modTime < entries[j].modTime })

	for _, e := range entries {
		if total <= c.maxBytes {
			break
		}
		if err := os.Remove(e.path); err != nil {
			logger.Warn().Err(err).Str(log.FieldCachePath, e.path).Msg("evict: failed to remove cache entry")
			continue
		}
		total -= e.size
		metrics.RecordCacheEviction()
		logger.Debug().Str(log.FieldCachePath, e.path).Msg("evicted cache entry")
	}

	metrics.SetCacheBytes(total)
	if total > c.maxBytes {
		return fmt.Errorf("%w: cache usage %d bytes still exceeds quota %d bytes after eviction", ErrCache, total, c.maxBytes)
	}
	return nil
}

func (c *AssetCache) scan() ([]cacheEntry, int64, error) {
	var entries []cacheEntry
	var total int64

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		entries = append(entries, cacheEntry{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
