// SPDX-License-Identifier: MIT
package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFetchAttributes(t *testing.T) {
	attrs := FetchAttributes(10, 20, 5, false)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyIntAttribute(t, attrs, FetchCursorKey, 10)
	verifyIntAttribute(t, attrs, FetchNextCursorKey, 20)
	verifyIntAttribute(t, attrs, FetchURLCountKey, 5)
	verifyBoolAttribute(t, attrs, FetchWrappedKey, false)
}

func TestCacheAttributes(t *testing.T) {
	attrs := CacheAttributes("https://example.com/a.jpg", "/data/assets/abc.jpg", true)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, CacheURLKey, "https://example.com/a.jpg")
	verifyAttribute(t, attrs, CachePathKey, "/data/assets/abc.jpg")
	verifyBoolAttribute(t, attrs, CacheHitKey, true)
}

func TestPlaylistAttributes(t *testing.T) {
	attrs := PlaylistAttributes("main", 7)

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, PlaylistRoleKey, "main")
	verifyIntAttribute(t, attrs, PlaylistCountKey, 7)
}

func TestPlayerAttributes(t *testing.T) {
	attrs := PlayerAttributes("loadfile", "https://example.com/a.mp4")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, PlayerCommandKey, "loadfile")
	verifyAttribute(t, attrs, PlayerAssetKey, "https://example.com/a.mp4")
}

func TestErrorAttributes(t *testing.T) {
	err := errors.New("test error")
	attrs := ErrorAttributes(err, "network_error")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "network_error")
}

func TestAttributeKeys_Consistency(t *testing.T) {
	keys := []string{
		FetchCursorKey,
		CacheURLKey,
		PlaylistRoleKey,
		PlayerCommandKey,
		ErrorKey,
	}

	for _, key := range keys {
		if key == "" {
			t.Errorf("Expected non-empty attribute key")
		}
	}
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
