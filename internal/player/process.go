// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/danmao124/vobox-pi-player/internal/log"
	"github.com/danmao124/vobox-pi-player/internal/metrics"
	"github.com/danmao124/vobox-pi-player/internal/procgroup"
)

// errKillTimeout is returned by Kill when the process group does not exit
// within killGrace+killTimeout of the termination sequence starting.
var errKillTimeout = fmt.Errorf("kill player group: %w", procgroup.ErrKillFailed)

const (
	killGrace   = 2 * time.Second
	killTimeout = 5 * time.Second
)

// Process owns the external media-player subprocess: it is launched in its
// own process group so that any grandchildren it spawns are reachable by a
// single signal, per spec.md §4.5's launch contract (fullscreen, no border,
// hardware decode, muted, idle-with-forced-window, no OSC, cursor
// auto-hide, configurable rotation, explicit image-display-duration, and
// input-ipc-server=<sock>).
type Process struct {
	bin          string
	socketPath   string
	imageSeconds time.Duration
	orientation  int

	cmd    *exec.Cmd
	waitCh chan error
}

// NewProcess configures (but does not start) a player subprocess launcher.
func NewProcess(bin, socketPath string, imageSeconds time.Duration, orientation int) *Process {
	return &Process{
		bin:          bin,
		socketPath:   socketPath,
		imageSeconds: imageSeconds,
		orientation:  orientation,
	}
}

// Start removes any stale socket file and launches the player subprocess in
// its own process group.
func (p *Process) Start() error {
	_ = os.Remove(p.socketPath)

	p.cmd = exec.Command(p.bin, p.args()...)
	p.cmd.Stdout = nil
	p.cmd.Stderr = nil
	procgroup.Set(p.cmd)

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("start player %s: %w", p.bin, err)
	}

	p.waitCh = make(chan error, 1)
	cmd := p.cmd
	go func() { p.waitCh <- cmd.Wait() }()

	metrics.SetPlayerUp(true)
	log.L().Info().Str("bin", p.bin).Int("pid", p.cmd.Process.Pid).Msg("player process started")
	return nil
}

func (p *Process) args() []string {
	return []string{
		"--fullscreen",
		"--no-border",
		"--hwdec=auto",
		"--mute=yes",
		"--idle=yes",
		"--force-window=yes",
		"--osc=no",
		"--cursor-autohide=1000",
		"--video-rotate=" + strconv.Itoa(p.orientation),
		"--image-display-duration=" + strconv.FormatFloat(p.imageSeconds.Seconds(), 'f', -1, 64),
		"--input-ipc-server=" + p.socketPath,
	}
}

// PID returns the subprocess PID, or 0 if not started.
func (p *Process) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Kill terminates the player's process group (SIGTERM, then SIGKILL after
// killGrace) via procgroup.Terminate and removes the socket file. Idempotent:
// safe to call on a process that never started or already exited. The exit
// status Terminate surfaces (a non-zero exit from a killed process is
// expected) is not propagated; Kill only reports a genuine failure to bring
// the process down within killGrace+killTimeout.
func (p *Process) Kill() error {
	defer func() { _ = os.Remove(p.socketPath) }()

	if p.cmd == nil || p.cmd.Process == nil {
		metrics.SetPlayerUp(false)
		return nil
	}

	pid := p.cmd.Process.Pid
	done := make(chan struct{})
	go func() {
		_ = procgroup.Terminate(p.cmd, p.waitCh, killGrace)
		close(done)
	}()

	metrics.SetPlayerUp(false)

	select {
	case <-done:
		return nil
	case <-time.After(killGrace + killTimeout):
		return fmt.Errorf("kill player group pid=%d: %w", pid, errKillTimeout)
	}
}
