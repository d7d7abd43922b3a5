// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities for the billboard player.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Fetch attributes
	FetchCursorKey    = "fetch.cursor"
	FetchNextCursorKey = "fetch.next_cursor"
	FetchURLCountKey  = "fetch.url_count"
	FetchWrappedKey   = "fetch.wrapped"

	// Cache attributes
	CacheURLKey   = "cache.url"
	CachePathKey  = "cache.path"
	CacheHitKey   = "cache.hit"

	// Playlist attributes
	PlaylistRoleKey  = "playlist.role"
	PlaylistCountKey = "playlist.count"

	// Player attributes
	PlayerCommandKey = "player.command"
	PlayerAssetKey   = "player.asset_url"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// FetchAttributes creates batch-fetch span attributes.
func FetchAttributes(cursor, nextCursor, urlCount int, wrapped bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(FetchCursorKey, cursor),
		attribute.Int(FetchNextCursorKey, nextCursor),
		attribute.Int(FetchURLCountKey, urlCount),
		attribute.Bool(FetchWrappedKey, wrapped),
	}
}

// CacheAttributes creates asset-cache span attributes.
func CacheAttributes(url, path string, hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CacheURLKey, url),
		attribute.String(CachePathKey, path),
		attribute.Bool(CacheHitKey, hit),
	}
}

// PlaylistAttributes creates playlist-controller span attributes.
func PlaylistAttributes(role string, count int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlaylistRoleKey, role),
		attribute.Int(PlaylistCountKey, count),
	}
}

// PlayerAttributes creates player-driver span attributes.
func PlayerAttributes(command, assetURL string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlayerCommandKey, command),
		attribute.String(PlayerAssetKey, assetURL),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
