// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/danmao124/vobox-pi-player/internal/log"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the subset of AppConfig that may be set from the
// optional YAML overlay. Durations are strings here in Go duration format
// (e.g. "15s"); maxCacheMB and orientation are plain integers.
type fileConfig struct {
	APIBase       string `yaml:"apiBase"`
	ID            string `yaml:"id"`
	ImageSeconds  string `yaml:"imageSeconds"`
	RestartHours  string `yaml:"restartHours"`
	MaxCacheMB    *int64 `yaml:"maxCacheMB"`
	Orientation   *int   `yaml:"orientation"`
	StaticAuthHdr string `yaml:"authHeader"`
	StateDir      string `yaml:"stateDir"`
	CacheDir      string `yaml:"cacheDir"`
	PlayerSocket  string `yaml:"playerSocket"`
	PlayerBin     string `yaml:"playerBin"`
	LogLevel      string `yaml:"logLevel"`
	MetricsAddr   string `yaml:"metricsAddr"`
}

// Loader loads AppConfig with precedence: ENV > YAML file > defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a Loader for the optional config file at configPath (may
// be empty to load from environment and defaults only).
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load reads the YAML overlay (if configured) then applies environment
// variables on top of it, and finally validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fc, err := loadFile(l.configPath)
		if err != nil {
			return AppConfig{}, fmt.Errorf("%w: load config file %s: %w", ErrConfig, l.configPath, err)
		}
		mergeFile(&cfg, fc)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		ImageSeconds: 15 * time.Second,
		RestartHours: 24 * time.Hour,
		MaxCacheMB:   30000,
		Orientation:  0,
		StateDir:     "/data/player/state",
		CacheDir:     "/data/assets",
		PlayerSocket: "/data/player/mpv.sock",
		PlayerBin:    "mpv",
		LogLevel:     "info",
	}
}

func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var fc fileConfig
	if err := dec.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
	}
	return fc, nil
}

func mergeFile(cfg *AppConfig, fc fileConfig) {
	if fc.APIBase != "" {
		cfg.APIBase = fc.APIBase
	}
	if fc.ID != "" {
		cfg.ID = fc.ID
	}
	if fc.ImageSeconds != "" {
		if d, err := time.ParseDuration(fc.ImageSeconds); err == nil {
			cfg.ImageSeconds = d
		}
	}
	if fc.RestartHours != "" {
		if d, err := time.ParseDuration(fc.RestartHours); err == nil {
			cfg.RestartHours = d
		}
	}
	if fc.MaxCacheMB != nil {
		cfg.MaxCacheMB = *fc.MaxCacheMB
	}
	if fc.Orientation != nil {
		cfg.Orientation = *fc.Orientation
	}
	if fc.StaticAuthHdr != "" {
		cfg.StaticAuthHdr = fc.StaticAuthHdr
	}
	if fc.StateDir != "" {
		cfg.StateDir = fc.StateDir
	}
	if fc.CacheDir != "" {
		cfg.CacheDir = fc.CacheDir
	}
	if fc.PlayerSocket != "" {
		cfg.PlayerSocket = fc.PlayerSocket
	}
	if fc.PlayerBin != "" {
		cfg.PlayerBin = fc.PlayerBin
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}
}

func applyEnv(cfg *AppConfig) {
	cfg.APIBase = ParseString("API_BASE", cfg.APIBase)
	cfg.ID = ParseString("ID", cfg.ID)
	cfg.ImageSeconds = time.Duration(ParseInt("IMAGE_SECONDS", int(cfg.ImageSeconds/time.Second))) * time.Second
	restartHours := ParseInt("RESTART_HOURS", int(cfg.RestartHours/time.Hour))
	cfg.RestartHours = time.Duration(restartHours) * time.Hour
	cfg.MaxCacheMB = int64(ParseInt("MAX_CACHE_MB", int(cfg.MaxCacheMB)))
	cfg.Orientation = ParseInt("ORIENTATION", cfg.Orientation)
	cfg.StaticAuthHdr = ParseString("AUTH_HEADER", cfg.StaticAuthHdr)
	cfg.StateDir = ParseString("STATE_DIR", cfg.StateDir)
	cfg.CacheDir = ParseString("CACHE_DIR", cfg.CacheDir)
	cfg.PlayerSocket = ParseString("PLAYER_SOCKET", cfg.PlayerSocket)
	cfg.PlayerBin = ParseString("PLAYER_BIN", cfg.PlayerBin)
	cfg.LogLevel = ParseString("LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = ParseString("METRICS_ADDR", cfg.MetricsAddr)

	log.WithComponent("config").Debug().
		Str("state_dir", cfg.StateDir).
		Str("cache_dir", cfg.CacheDir).
		Msg("configuration resolved")
}
