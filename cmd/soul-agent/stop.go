// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/AustinWp/soul-agent/internal/daemon"
	"github.com/AustinWp/soul-agent/internal/errors"
	"github.com/AustinWp/soul-agent/internal/ui"
)

// runStop executes the 'stop' CLI command, signaling the daemon to
// shut down gracefully.
func runStop(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("stop", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent stop

Description:
  Stop the capture daemon. Buffered terminal commands are flushed and
  the ingest queue is drained before the process exits, so nothing
  captured is lost.

Examples:
  soul-agent stop
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	pid, err := daemon.Stop()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to stop the daemon",
			err.Error(),
			"Check the PID file under ~/.soul-agent",
			err,
		), globals.JSON)
	}
	if pid == 0 {
		ui.Warning("Daemon is not running")
		return
	}
	ui.Successf("Sent stop signal to daemon (pid %d)", pid)
}
