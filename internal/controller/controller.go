// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package controller owns the playback state machine: it orchestrates the
// main/pending playlist files and the fetch cursor through the cycle
// "play main to completion, then swap pending into main, then kick off a
// new pending fetch", coordinating the Batch Fetcher, Asset Cache, and
// Player Driver around that cycle.
package controller

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/danmao124/vobox-pi-player/internal/cache"
	"github.com/danmao124/vobox-pi-player/internal/fetcher"
	"github.com/danmao124/vobox-pi-player/internal/log"
	"github.com/danmao124/vobox-pi-player/internal/metrics"
	"github.com/danmao124/vobox-pi-player/internal/player"
	"github.com/danmao124/vobox-pi-player/internal/playlist"
)

// State is a Playlist Controller lifecycle state.
type State int

const (
	StateBooting State = iota
	StatePlaying
	StateSwapping
	StateRefetching
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StatePlaying:
		return "playing"
	case StateSwapping:
		return "swapping"
	case StateRefetching:
		return "refetching"
	case StateExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

const (
	bootstrapBackoff = 5 * time.Second
	refetchBackoff   = 2 * time.Second
)

// Controller walks main.txt, handing each URL to the Player Driver, and
// swaps in pending.txt at end-of-list, re-kicking a background fetch after
// every swap and at bootstrap.
type Controller struct {
	mainPath    string
	pendingPath string
	indexPath   string

	fetcher *fetcher.Fetcher
	cache   *cache.AssetCache
	driver  *player.Driver

	restartHours time.Duration

	state         State
	prefetchGroup errgroup.Group
}

// New builds a Controller rooted at stateDir (holding main.txt, pending.txt,
// index.txt). restartHours of 0 disables the voluntary-restart timer.
func New(stateDir string, f *fetcher.Fetcher, c *cache.AssetCache, d *player.Driver, restartHours time.Duration) *Controller {
	return &Controller{
		mainPath:     filepath.Join(stateDir, "main.txt"),
		pendingPath:  filepath.Join(stateDir, "pending.txt"),
		indexPath:    filepath.Join(stateDir, "index.txt"),
		fetcher:      f,
		cache:        c,
		driver:       d,
		restartHours: restartHours,
		state:        StateBooting,
	}
}

// Run executes the primary loop until ctx is cancelled (signal shutdown) or
// the restart timer elapses at a batch boundary. Fetch, download, playback
// and swap errors are absorbed locally with a bounded backoff; ctx
// cancellation and a restart both end the loop with a nil error (the process
// exits 0 so the external supervisor restarts it). A failure to write
// main.txt or index.txt after a successful fetch ends the loop and is
// returned as an error.
func (ctl *Controller) Run(ctx context.Context) error {
	logger := log.WithComponentFromContext(ctx, "controller")
	startedAt := time.Now()

	ctl.setState(logger, StateBooting)
	if err := ctl.fetchIntoMain(ctx, bootstrapBackoff); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	ctl.setState(logger, StatePlaying)
	ctl.startPrefetch(ctx)

	for {
		if ctx.Err() != nil {
			ctl.setState(logger, StateExiting)
			_ = ctl.prefetchGroup.Wait()
			return nil
		}

		cycleID := uuid.NewString()
		cycleCtx := log.ContextWithCorrelationID(ctx, cycleID)

		urls, err := playlist.ReadList(ctl.mainPath)
		if err != nil {
			logger.Warn().Err(err).Msg("read main playlist failed")
		}

		if len(urls) == 0 {
			logger.Warn().Msg("main list empty, refetching at current cursor")
			ctl.setState(logger, StateRefetching)
			if err := ctl.fetchIntoMain(cycleCtx, refetchBackoff); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			ctl.setState(logger, StatePlaying)
			continue
		}

		ctl.playAll(cycleCtx, logger, urls)

		ctl.setState(logger, StateSwapping)
		if err := ctl.swap(cycleCtx, logger); err != nil {
			logger.Warn().Err(err).Msg("swap failed, continuing on current main list")
		}
		ctl.setState(logger, StatePlaying)

		if ctl.restartDue(startedAt) {
			logger.Info().Dur("uptime", time.Since(startedAt)).Msg("restart interval elapsed, exiting for supervisor restart")
			ctl.setState(logger, StateExiting)
			_ = ctl.prefetchGroup.Wait()
			return nil
		}
	}
}

func (ctl *Controller) restartDue(startedAt time.Time) bool {
	return ctl.restartHours > 0 && time.Since(startedAt) >= ctl.restartHours
}

func (ctl *Controller) playAll(ctx context.Context, logger zerolog.Logger, urls []string) {
	for _, u := range urls {
		if ctx.Err() != nil {
			return
		}

		localPath, err := ctl.cache.GetOrFetch(ctx, u)
		if err != nil {
			logger.Warn().Err(err).Str(log.FieldAssetURL, u).Msg("asset download failed, skipping")
			continue
		}

		if err := ctl.driver.EnsureAlive(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure_alive failed, skipping asset")
			continue
		}

		if err := ctl.driver.Play(ctx, u, localPath); err != nil {
			logger.Warn().Err(err).Str(log.FieldAssetURL, u).Msg("playback failed")
		}
	}
}

// swap promotes pending.txt to main.txt, evicts over-quota cache entries,
// and kicks a new background fetch. If pending.txt is empty, the controller
// logs and continues on the current main.txt without renaming anything.
func (ctl *Controller) swap(ctx context.Context, logger zerolog.Logger) error {
	pendingURLs, err := playlist.ReadList(ctl.pendingPath)
	if err != nil {
		return err
	}
	if len(pendingURLs) == 0 {
		logger.Info().Msg("pending playlist empty, continuing on current main list")
		metrics.RecordPlaylistSwap("empty_pending")
		return nil
	}

	if err := playlist.Swap(ctl.pendingPath, ctl.mainPath); err != nil {
		metrics.RecordPlaylistSwap("error")
		return err
	}
	metrics.RecordPlaylistSwap("success")

	if err := ctl.cache.Evict(ctx); err != nil {
		logger.Warn().Err(err).Msg("cache eviction failed")
	}

	ctl.startPrefetch(ctx)
	return nil
}

// startPrefetch joins any prior in-flight prefetch (at most one runs at a
// time) before launching the next one into pending.txt.
func (ctl *Controller) startPrefetch(ctx context.Context) {
	_ = ctl.prefetchGroup.Wait()
	ctl.prefetchGroup.Go(func() error {
		ctl.prefetch(ctx)
		return nil
	})
}

// prefetch reads the current cursor from index.txt, fetches the next batch,
// and writes it to pending.txt plus the advanced cursor to index.txt.
// Failures are logged, not fatal: the controller degrades to continuing on
// the existing main.txt until the next swap attempt.
func (ctl *Controller) prefetch(ctx context.Context) {
	logger := log.WithComponentFromContext(ctx, "controller")

	cursor, err := playlist.ReadCursor(ctl.indexPath)
	if err != nil {
		logger.Warn().Err(err).Msg("read cursor failed, defaulting to 0")
	}

	result, err := ctl.fetcher.Fetch(ctx, cursor)
	if err != nil {
		logger.Warn().Err(err).Int(log.FieldCursor, cursor).Msg("background prefetch failed")
		return
	}
	if result.Wrapped {
		logger.Info().Int(log.FieldCursor, cursor).Int("next_cursor", result.NextCursor).Msg("fetch cursor wrapped")
	}

	if err := playlist.WriteList(ctl.pendingPath, result.URLs); err != nil {
		logger.Error().Err(err).Msg("write pending playlist failed")
		return
	}
	if err := playlist.WriteCursor(ctl.indexPath, result.NextCursor); err != nil {
		logger.Error().Err(err).Msg("write cursor failed")
	}
}

// fetchIntoMain retries fetch(cursor) with the given backoff until it
// succeeds, then writes the result directly to main.txt and index.txt. Used
// both at bootstrap (5s backoff) and when main.txt is found empty mid-run
// (2s backoff).
func (ctl *Controller) fetchIntoMain(ctx context.Context, backoff time.Duration) error {
	logger := log.WithComponentFromContext(ctx, "controller")

	for {
		cursor, err := playlist.ReadCursor(ctl.indexPath)
		if err != nil {
			logger.Warn().Err(err).Msg("read cursor failed, defaulting to 0")
		}

		result, err := ctl.fetcher.Fetch(ctx, cursor)
		if err != nil {
			logger.Warn().Err(err).Int(log.FieldCursor, cursor).Msg("fetch failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		if err := playlist.WriteList(ctl.mainPath, result.URLs); err != nil {
			return err
		}
		if err := playlist.WriteCursor(ctl.indexPath, result.NextCursor); err != nil {
			return err
		}
		return nil
	}
}

func (ctl *Controller) setState(logger zerolog.Logger, s State) {
	old := ctl.state
	ctl.state = s
	logger.Info().
		Str(log.FieldOldState, old.String()).
		Str(log.FieldNewState, s.String()).
		Msg("controller state transition")
}
