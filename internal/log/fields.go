// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldJobID         = "job_id"
	FieldDeviceID      = "device_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath         = "path"
	FieldBaseURL      = "base_url"
	FieldCachePath    = "cache_path"
	FieldPlaylistPath = "playlist_path"
	FieldAssetURL     = "asset_url"

	// Fetcher fields
	FieldCursor    = "cursor"
	FieldBatchSize = "batch_size"

	// Player fields
	FieldPlayerPID = "player_pid"
	FieldExitCode  = "exit_code"
)
