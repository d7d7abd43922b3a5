// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPathFor_DeterministicWithExtension(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 100)
	require.NoError(t, err)

	p1, err := c.PathFor("https://billboard.example.com/assets/ad-1.jpg")
	require.NoError(t, err)
	p2, err := c.PathFor("https://billboard.example.com/assets/ad-1.jpg")
	require.NoError(t, err)

	require.Equal(t, p1, p2)
	require.Equal(t, ".jpg", filepath.Ext(p1))
}

func TestPathFor_DifferentURLsDifferentPaths(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 100)
	require.NoError(t, err)

	p1, err := c.PathFor("https://billboard.example.com/assets/a.jpg")
	require.NoError(t, err)
	p2, err := c.PathFor("https://billboard.example.com/assets/b.jpg")
	require.NoError(t, err)

	require.NotEqual(t, p1, p2)
}

func TestGetOrFetch_DownloadsOnMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("asset-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c, err := New(dir, 100)
	require.NoError(t, err)

	path, err := c.GetOrFetch(context.Background(), srv.URL+"/ad.bin")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "asset-bytes", string(data))

	// .tmp sibling must not remain after a successful download.
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestGetOrFetch_ReturnsExistingFileWithoutNetworkCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c, err := New(dir, 100)
	require.NoError(t, err)

	rawURL := srv.URL + "/cached.bin"
	localPath, err := c.PathFor(rawURL)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(localPath, []byte("already-here"), 0o640))

	path, err := c.GetOrFetch(context.Background(), rawURL)
	require.NoError(t, err)
	require.Equal(t, localPath, path)
	require.False(t, called)
}

func TestGetOrFetch_RemovesPartialOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	c, err := New(dir, 100)
	require.NoError(t, err)

	rawURL := srv.URL + "/broken.bin"
	_, err = c.GetOrFetch(context.Background(), rawURL)
	require.Error(t, err)

	localPath, err := c.PathFor(rawURL)
	require.NoError(t, err)
	_, statErr := os.Stat(localPath + ".tmp")
	require.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(localPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestEvict_RemovesOldestFilesUntilUnderQuota(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 0) // zero MB quota forces eviction of everything over it

	require.NoError(t, err)

	old := filepath.Join(dir, "old.bin")
	newer := filepath.Join(dir, "new.bin")
	require.NoError(t, os.WriteFile(old, []byte("11111"), 0o640))
	oldTime := time.Now().Add(-1 * time.Hour)
	require.NoError(t, os.Chtimes(old, oldTime, oldTime))
	require.NoError(t, os.WriteFile(newer, []byte("222"), 0o640))

	require.NoError(t, c.Evict(context.Background()))

	_, err = os.Stat(old)
	require.True(t, os.IsNotExist(err), "oldest file should have been evicted first")
	_, err = os.Stat(newer)
	require.True(t, os.IsNotExist(err), "quota is zero so all files must go")
}

func TestEvict_NoopUnderQuota(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 100)
	require.NoError(t, err)

	p := filepath.Join(dir, "keep.bin")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o640))

	require.NoError(t, c.Evict(context.Background()))

	_, err = os.Stat(p)
	require.NoError(t, err)
}
