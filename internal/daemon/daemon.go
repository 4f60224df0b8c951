// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package daemon manages the background process lifecycle: the state
// directory under ~/.soul-agent, the PID file, and liveness checks used
// by the start/stop/status commands.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// stateDirName is the per-user state directory under $HOME.
const stateDirName = ".soul-agent"

// StateDir returns the state directory, creating it if needed.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, stateDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}

// PIDPath returns the path of the daemon PID file.
func PIDPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "soul-agent.pid"), nil
}

// LogPath returns the path of the daemon log file.
func LogPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "soul-agent.log"), nil
}

// WritePID records the current process id in the PID file.
func WritePID() error {
	path, err := PIDPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600)
}

// ReadPID returns the recorded pid, or 0 when no PID file exists.
func ReadPID() (int, error) {
	path, err := PIDPath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", path, err)
	}
	return pid, nil
}

// RemovePID deletes the PID file. Missing files are not an error.
func RemovePID() error {
	path, err := PIDPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Alive reports whether a process with the given pid exists. Signal 0
// probes without delivering anything.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Running returns the pid of a live daemon, or 0 if none is running.
// A stale PID file pointing at a dead process is removed.
func Running() (int, error) {
	pid, err := ReadPID()
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		return 0, nil
	}
	if !Alive(pid) {
		_ = RemovePID()
		return 0, nil
	}
	return pid, nil
}

// Stop sends SIGTERM to the daemon identified by the PID file.
// Returns the signaled pid, or 0 when no daemon was running.
func Stop() (int, error) {
	pid, err := Running()
	if err != nil || pid == 0 {
		return 0, err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return 0, fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return pid, nil
}
