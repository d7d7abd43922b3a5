// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/danmao124/vobox-pi-player/internal/log"
	"github.com/danmao124/vobox-pi-player/internal/metrics"
	"github.com/danmao124/vobox-pi-player/internal/telemetry"
	"github.com/rs/zerolog"
)

// ErrPlayerUnavailable indicates the player subprocess could not be brought
// to a usable state within the EnsureAlive probe window (e.g. it started
// but never opened its IPC socket). Callers must treat this the same as a
// Start failure: skip the current asset and try again on the next cycle.
var ErrPlayerUnavailable = errors.New("player unavailable")

// aliveProbeTimeout and aliveProbeInterval are vars (not consts) so tests
// can shrink the probe window instead of blocking for the real 8s.
var (
	aliveProbeTimeout  = 8 * time.Second
	aliveProbeInterval = 100 * time.Millisecond
)

const (
	eofPollInterval      = 200 * time.Millisecond
	unknownDurationWait  = 5 * time.Minute
	durationSafetyMargin = 10 * time.Second
)

// videoExtensions is the recognized set of video file extensions; anything
// else with a non-empty extension is treated as an image.
var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true, ".webm": true, ".m4v": true,
}

// Driver supervises one long-running media-player child process, health
// probing its IPC socket and restarting it transparently when the socket is
// stale or dead, per spec.md §4.5.
type Driver struct {
	bin          string
	socketPath   string
	imageSeconds time.Duration
	orientation  int

	process *Process
	ipc     *IPCClient
}

// NewDriver configures a Driver. The player subprocess is not started until
// EnsureAlive is first called.
func NewDriver(bin, socketPath string, imageSeconds time.Duration, orientation int) *Driver {
	return &Driver{
		bin:          bin,
		socketPath:   socketPath,
		imageSeconds: imageSeconds,
		orientation:  orientation,
	}
}

// EnsureAlive probes the IPC socket with get_property idle-active. A
// missing socket or a reply without a data field means the process is dead
// or stuck: the player process this Driver previously started (if any) is
// killed, the socket file removed, a new player spawned, and the call waits
// up to 8s (polling every 100ms) for the socket to reappear. A process this
// Driver did not start (e.g. one left over from an earlier run) is not
// signalled; only its socket file is removed. Calling EnsureAlive repeatedly starts
// at most one new player process. If the new process never opens its
// socket within the probe window, EnsureAlive returns ErrPlayerUnavailable
// instead of silently leaving d.ipc nil; callers must skip playback on that
// error rather than proceed with a nil IPC client.
func (d *Driver) EnsureAlive(ctx context.Context) error {
	logger := log.WithComponentFromContext(ctx, "player")

	if d.probe() {
		return nil
	}

	logger.Warn().Msg("player socket unhealthy, restarting player process")
	metrics.RecordPlayerRestart("unhealthy_socket")

	if d.ipc != nil {
		_ = d.ipc.Close()
		d.ipc = nil
	}
	if d.process != nil {
		_ = d.process.Kill()
	}

	d.process = NewProcess(d.bin, d.socketPath, d.imageSeconds, d.orientation)
	if err := d.process.Start(); err != nil {
		return err
	}

	deadline := time.Now().Add(aliveProbeTimeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(d.socketPath); err == nil {
			if client, err := DialIPC(d.socketPath); err == nil {
				d.ipc = client
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(aliveProbeInterval):
		}
	}

	logger.Warn().Dur("timeout", aliveProbeTimeout).Msg("player socket did not reappear within probe window")
	return fmt.Errorf("%w: socket %s did not reappear within %s", ErrPlayerUnavailable, d.socketPath, aliveProbeTimeout)
}

// probe returns true if the current IPC connection responds to
// get_property idle-active with a usable reply.
func (d *Driver) probe() bool {
	if d.ipc == nil {
		return false
	}
	_, err := d.ipc.GetPropertyBool("idle-active")
	return err == nil
}

// Play displays the asset at localPath for the duration appropriate to its
// type: a fixed IMAGE_SECONDS for images, or until end-of-file (with a
// safety timeout) for videos. A URL with no path extension is skipped.
func (d *Driver) Play(ctx context.Context, rawURL, localPath string) error {
	logger := log.WithComponentFromContext(ctx, "player")
	tracer := telemetry.Tracer("player")
	ctx, span := tracer.Start(ctx, "player.play")
	defer span.End()

	ext := extOf(rawURL)
	if ext == "" {
		logger.Warn().Str(log.FieldAssetURL, rawURL).Msg("asset url has no extension, skipping")
		return nil
	}

	span.SetAttributes(telemetry.PlayerAttributes("loadfile", rawURL)...)

	isVideo := videoExtensions[ext]
	loopMode := "inf"
	if isVideo {
		loopMode = "no"
	}
	// Best-effort: a failed IPC write is logged and playback proceeds; the
	// next EnsureAlive call catches a dead player.
	if err := d.ipc.SetLoopFile(loopMode); err != nil {
		logger.Warn().Err(err).Msg("set loop-file failed")
	}
	if err := d.ipc.LoadFile(localPath); err != nil {
		logger.Warn().Err(err).Str(log.FieldCachePath, localPath).Msg("loadfile failed")
		return nil
	}

	if !isVideo {
		return d.waitOrCancel(ctx, d.imageSeconds)
	}
	return d.waitForEOF(ctx, logger)
}

// waitForEOF polls eof-reached every 200ms until it becomes true or a
// safety timeout elapses (duration + 10s, or 5 minutes if duration is
// unknown), sending stop on timeout so the next loadfile cleanly replaces
// the stalled output.
func (d *Driver) waitForEOF(ctx context.Context, logger zerolog.Logger) error {
	timeout := unknownDurationWait
	if duration, err := d.ipc.GetPropertyFloat("duration"); err == nil && duration > 0 {
		timeout = time.Duration(duration*float64(time.Second)) + durationSafetyMargin
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(eofPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			eof, err := d.ipc.GetPropertyBool("eof-reached")
			if err != nil {
				logger.Warn().Err(err).Msg("eof-reached probe failed")
				continue
			}
			if eof {
				return nil
			}
			if time.Now().After(deadline) {
				logger.Warn().Dur("timeout", timeout).Msg("video playback safety timeout, stopping")
				if err := d.ipc.Stop(); err != nil {
					logger.Warn().Err(err).Msg("stop command failed after safety timeout")
				}
				return nil
			}
		}
	}
}

func extOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return filepath.Ext(rawURL)
	}
	return filepath.Ext(parsed.Path)
}

func (d *Driver) waitOrCancel(ctx context.Context, dur time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(dur):
		return nil
	}
}

// Shutdown sends quit, kills the process group, and removes the socket
// file. Idempotent; safe to call on normal exit, SIGINT, and SIGTERM.
func (d *Driver) Shutdown(ctx context.Context) error {
	logger := log.WithComponentFromContext(ctx, "player")

	if d.ipc != nil {
		if err := d.ipc.Quit(); err != nil {
			logger.Debug().Err(err).Msg("quit command failed during shutdown")
		}
		_ = d.ipc.Close()
		d.ipc = nil
	}

	if d.process != nil {
		if err := d.process.Kill(); err != nil {
			logger.Warn().Err(err).Msg("player process kill failed during shutdown")
		}
		d.process = nil
	}

	_ = os.Remove(d.socketPath)
	return nil
}
