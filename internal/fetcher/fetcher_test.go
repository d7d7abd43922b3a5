// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("index"))
		_, _ = w.Write([]byte(`{"response":{"data":[{"url":"https://x/y/a.png"}],"message":"1"}}`))
	}))
	defer srv.Close()

	f := New(srv.URL, "dev-1", "static-token", nil)
	result, err := f.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/y/a.png"}, result.URLs)
	assert.Equal(t, 1, result.NextCursor)
	assert.False(t, result.Wrapped)
}

func TestFetch_NormalizesURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"response\":{\"data\":[{\"url\":\" https://x/y/a.png,\\r\"}],\"message\":\"1\"}}"))
	}))
	defer srv.Close()

	f := New(srv.URL, "dev-1", "static-token", nil)
	result, err := f.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/y/a.png"}, result.URLs)
}

func TestFetch_EmptyURLListFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"data":[],"message":"1"}}`))
	}))
	defer srv.Close()

	f := New(srv.URL, "dev-1", "static-token", nil)
	_, err := f.Fetch(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestFetch_MalformedCursorDefaultsToQueried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"data":[{"url":"https://x/y/a.png"}],"message":"not-a-number"}}`))
	}))
	defer srv.Close()

	f := New(srv.URL, "dev-1", "static-token", nil)
	result, err := f.Fetch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, result.NextCursor)
	assert.False(t, result.Wrapped)
}

func TestFetch_WrapDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"data":[{"url":"https://x/y/a.png"}],"message":"0"}}`))
	}))
	defer srv.Close()

	f := New(srv.URL, "dev-1", "static-token", nil)
	result, err := f.Fetch(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, result.Wrapped)
	assert.Equal(t, 0, result.NextCursor)
}

func TestFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(srv.URL, "dev-1", "static-token", nil)
	_, err := f.Fetch(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestFetch_StaticAuthHeaderSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"response":{"data":[{"url":"https://x/y/a.png"}],"message":"1"}}`))
	}))
	defer srv.Close()

	f := New(srv.URL, "dev-1", "secret-header", nil)
	_, err := f.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "secret-header", gotAuth)
}

func TestParseBatch_EmptyURLList(t *testing.T) {
	_, err := parseBatch([]byte(`{"response":{"data":[{"url":"  ,"}],"message":"1"}}`), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"https://x/y/a.png":        "https://x/y/a.png",
		" https://x/y/a.png ":      "https://x/y/a.png",
		"https://x/y/a.png,":       "https://x/y/a.png",
		"https://x/y/a.png\r":      "https://x/y/a.png",
		"   ":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeURL(in), "input=%q", in)
	}
}
