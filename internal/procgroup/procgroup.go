// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup supervises the media player child process: it starts
// the player in its own process group so that any grandchildren it spawns
// are reachable by a single signal, and it implements the graduated
// SIGTERM-then-SIGKILL shutdown sequence used both at normal exit and when a
// stale player needs to be replaced.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
)

var (
	ErrProcessNotFound = errors.New("process not found")
	ErrKillFailed      = errors.New("kill operation failed")
)

// Set configures the command to start in a new process group.
// Mandatory for Kill/Terminate to function as a group reaper.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Kill sends sig to the process group of cmd. Safe to call on a nil command
// or a process that has already exited.
func Kill(cmd *exec.Cmd, sig syscall.Signal) error {
	return kill(cmd, sig)
}
