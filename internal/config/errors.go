// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrConfig classifies fatal startup configuration errors (spec.md §7's
	// ConfigError class). Use errors.Is(err, ErrConfig) rather than string
	// matching.
	ErrConfig = errors.New("config error")

	// ErrUnknownConfigField classifies strict YAML parse failures caused by
	// unknown keys in the optional config file overlay.
	ErrUnknownConfigField = errors.New("unknown config field")
)
