// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danmao124/vobox-pi-player/internal/cache"
	"github.com/danmao124/vobox-pi-player/internal/config"
	"github.com/danmao124/vobox-pi-player/internal/controller"
	"github.com/danmao124/vobox-pi-player/internal/fetcher"
	"github.com/danmao124/vobox-pi-player/internal/identity"
	xglog "github.com/danmao124/vobox-pi-player/internal/log"
	"github.com/danmao124/vobox-pi-player/internal/player"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "vobox-player", Version: version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(strings.TrimSpace(*configPath), version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "config.load_failed").Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "vobox-player", Version: version})
	logger = xglog.WithComponent("main")

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str(xglog.FieldBaseURL, cfg.APIBase).
		Int("orientation", cfg.Orientation).
		Dur("restart_hours", cfg.RestartHours).
		Msg("starting vobox player")

	signer, err := identity.NewSigner()
	if err != nil && cfg.StaticAuthHdr == "" {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "identity.signer_failed").
			Msg("no static auth header configured and device identity could not be resolved")
	}
	if cfg.StaticAuthHdr != "" {
		logger.Info().Msg("using static AUTH_HEADER, device HMAC signing disabled")
		signer = nil
	}

	f := fetcher.New(cfg.APIBase, cfg.ID, cfg.StaticAuthHdr, signer)

	assetCache, err := cache.New(cfg.CacheDir, cfg.MaxCacheMB)
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "cache.init_failed").Msg("failed to initialize asset cache")
	}

	if err := os.MkdirAll(cfg.StateDir, 0o750); err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "state.init_failed").Msg("failed to create state directory")
	}

	driver := player.NewDriver(cfg.PlayerBin, cfg.PlayerSocket, cfg.ImageSeconds, cfg.Orientation)

	ctl := controller.New(cfg.StateDir, f, assetCache, driver, cfg.RestartHours)

	if cfg.MetricsAddr != "" {
		go serveMetrics(logger, cfg.MetricsAddr)
	}

	runErr := ctl.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("player shutdown reported an error")
	}

	if runErr != nil {
		logger.Fatal().Err(runErr).Str(xglog.FieldEvent, "controller.failed").Msg("controller exited with error")
	}

	logger.Info().Str(xglog.FieldEvent, "shutdown").Msg("vobox player exiting")
}

// serveMetrics runs a Prometheus scrape endpoint on addr until the process
// exits. A listen failure is logged, not fatal: metrics are a diagnostic
// surface, not required for playback.
func serveMetrics(logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("metrics listener starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics listener failed")
	}
}
