// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the billboard player's runtime configuration.
//
// Precedence is ENV > YAML file > defaults, matching the teacher project's
// config.Loader. Unlike the teacher, this package has a small, fixed set of
// keys: the player has no HTTP-configurable surface.
package config

import (
	"fmt"
	"time"
)

// AppConfig holds all runtime configuration for the player.
type AppConfig struct {
	// Required.
	APIBase string // API_BASE: URL prefix for the billboard endpoint.
	ID      string // ID: opaque billboard identifier sent as the "id" query param.

	// Playback tuning.
	ImageSeconds  time.Duration // IMAGE_SECONDS (default 15s)
	RestartHours  time.Duration // RESTART_HOURS (default 24h, 0 disables)
	MaxCacheMB    int64         // MAX_CACHE_MB (default 30000)
	Orientation   int           // ORIENTATION: 0/90/180/270
	StaticAuthHdr string        // AUTH_HEADER: legacy static header, bypasses HMAC signing when set.

	// Filesystem layout.
	StateDir     string // STATE_DIR: main.txt/pending.txt/index.txt live here.
	CacheDir     string // CACHE_DIR: downloaded asset pool.
	PlayerSocket string // PLAYER_SOCKET: IPC socket path passed to the player.
	PlayerBin    string // PLAYER_BIN: media player executable.

	// Ambient.
	LogLevel    string
	MetricsAddr string // optional, empty disables the metrics listener.
	Version     string
}

// Validate enforces the fatal ConfigError conditions from spec.md §6/§7:
// missing API_BASE or ID. Device-secret validation happens in internal/identity
// (it depends on host state, not on parsed config).
func (c AppConfig) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("%w: API_BASE is required", ErrConfig)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: ID is required", ErrConfig)
	}
	if c.Orientation != 0 && c.Orientation != 90 && c.Orientation != 180 && c.Orientation != 270 {
		return fmt.Errorf("%w: ORIENTATION must be one of 0, 90, 180, 270 (got %d)", ErrConfig, c.Orientation)
	}
	return nil
}
