// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/AustinWp/soul-agent/internal/bootstrap"
	"github.com/AustinWp/soul-agent/internal/daemon"
	"github.com/AustinWp/soul-agent/internal/errors"
	"github.com/AustinWp/soul-agent/internal/ui"
)

// runStart executes the 'start' CLI command. By default it forks a
// detached copy of itself with --foreground and waits for the HTTP
// surface to come up; with --foreground it runs the daemon in place.
func runStart(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	foreground := fs.Bool("foreground", false, "Run in the foreground instead of detaching")
	timeout := fs.Duration("timeout", 15*time.Second, "How long to wait for the daemon to become ready")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent start [options]

Description:
  Start the capture daemon. The daemon watches the configured sources,
  classifies activity in batches, and writes results into the vault.
  Logs go to ~/.soul-agent/soul-agent.log unless --foreground is set.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  soul-agent start
  soul-agent start --foreground
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(globals)

	if pid, err := daemon.Running(); err == nil && pid != 0 {
		ui.Warningf("Daemon already running (pid %d)", pid)
		return
	}

	if *foreground {
		runForeground(globals)
		return
	}

	logPath, err := daemon.LogPath()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot prepare the state directory",
			err.Error(),
			"Check permissions on your home directory",
			err,
		), globals.JSON)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot open the daemon log file",
			fmt.Sprintf("open %s failed", logPath),
			"Check permissions on ~/.soul-agent",
			err,
		), globals.JSON)
	}
	defer logFile.Close()

	self, err := os.Executable()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot locate the soul-agent binary",
			err.Error(),
			"Reinstall soul-agent or run with --foreground",
			err,
		), globals.JSON)
	}

	childArgs := []string{"start", "--foreground"}
	if globals.ConfigPath != "" {
		childArgs = append(childArgs, "--config", globals.ConfigPath)
	}
	cmd := exec.Command(self, childArgs...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to start the daemon",
			err.Error(),
			"Try 'soul-agent start --foreground' to see the error directly",
			err,
		), globals.JSON)
	}
	// The child writes its own PID file once it is up.
	_ = cmd.Process.Release()

	ui.Info("Waiting for the daemon to become ready...")
	if err := waitForStatus(cfg.Port, *timeout); err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Daemon did not become ready",
			fmt.Sprintf("No response on port %d within %s", cfg.Port, *timeout),
			fmt.Sprintf("Check the log at %s", logPath),
			err,
		), globals.JSON)
	}

	ui.Successf("Daemon started on port %d", cfg.Port)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  soul-agent status    Check daemon health")
	fmt.Println("  soul-agent note      Record your first note")
}

// runForeground runs the daemon in the current process until SIGINT or
// SIGTERM.
func runForeground(globals GlobalFlags) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := loadConfig(globals)

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to assemble the daemon",
			err.Error(),
			"Check the configuration and the vault path",
			err,
		), globals.JSON)
	}

	if err := daemon.WritePID(); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot write the PID file",
			err.Error(),
			"Check permissions on ~/.soul-agent",
			err,
		), globals.JSON)
	}
	defer func() { _ = daemon.RemovePID() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		_ = daemon.RemovePID()
		errors.FatalError(errors.NewInternalError(
			"Daemon exited with an error",
			err.Error(),
			"Check the log for details",
			err,
		), globals.JSON)
	}
}

// waitForStatus polls /service/status until it answers or the timeout
// elapses.
func waitForStatus(port int, timeout time.Duration) error {
	c := newClient(port)
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = c.get("/service/status", nil); lastErr == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return lastErr
}
