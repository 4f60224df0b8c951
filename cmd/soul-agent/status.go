// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/AustinWp/soul-agent/internal/daemon"
	"github.com/AustinWp/soul-agent/internal/errors"
	"github.com/AustinWp/soul-agent/internal/output"
	"github.com/AustinWp/soul-agent/internal/ui"
)

// statusResult is the machine-readable view of daemon health.
type statusResult struct {
	Running      bool              `json:"running"`
	PID          int               `json:"pid,omitempty"`
	Port         int               `json:"port"`
	UptimeSecs   int               `json:"uptime_seconds,omitempty"`
	QueuePending int               `json:"queue_pending,omitempty"`
	VaultPath    string            `json:"vault_path,omitempty"`
	Components   map[string]string `json:"components,omitempty"`
}

// runStatus executes the 'status' CLI command, combining the PID file
// check with the daemon's own /service/status report.
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent status [options]

Shows daemon liveness, queue depth, and per-producer health.

Examples:
  soul-agent status
  soul-agent --json status
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(globals)
	result := statusResult{Port: cfg.Port}

	pid, err := daemon.Running()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot read daemon state",
			err.Error(),
			"Check the PID file under ~/.soul-agent",
			err,
		), globals.JSON)
	}

	if pid == 0 {
		if globals.JSON {
			_ = output.JSON(result)
			return
		}
		ui.Warning("Daemon is not running")
		fmt.Println("Start it with: soul-agent start")
		return
	}

	result.Running = true
	result.PID = pid

	var remote struct {
		UptimeSeconds int               `json:"uptime_seconds"`
		QueuePending  int               `json:"queue_pending"`
		VaultPath     string            `json:"vault_path"`
		Components    map[string]string `json:"components"`
	}
	if err := newClient(cfg.Port).get("/service/status", &remote); err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Daemon process exists but is not answering",
			fmt.Sprintf("pid %d is alive, port %d is silent", pid, cfg.Port),
			"Stop and restart the daemon",
			err,
		), globals.JSON)
	}
	result.UptimeSecs = remote.UptimeSeconds
	result.QueuePending = remote.QueuePending
	result.VaultPath = remote.VaultPath
	result.Components = remote.Components

	if globals.JSON {
		_ = output.JSON(result)
		return
	}

	ui.Header("soul-agent status")
	ui.Successf("Running (pid %d, port %d)", pid, cfg.Port)
	fmt.Printf("%s %s\n", ui.Label("Vault:"), ui.DimText(result.VaultPath))
	fmt.Printf("%s %s\n", ui.Label("Queue pending:"), ui.CountText(result.QueuePending))
	fmt.Printf("%s %ds\n", ui.Label("Uptime:"), result.UptimeSecs)

	if len(result.Components) > 0 {
		ui.SubHeader("Producers:")
		names := make([]string, 0, len(result.Components))
		for name := range result.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-12s %s\n", name, result.Components[name])
		}
	}
}
