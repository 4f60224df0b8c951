// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/AustinWp/soul-agent/internal/errors"
	"github.com/AustinWp/soul-agent/internal/output"
	"github.com/AustinWp/soul-agent/internal/ui"
)

// runNote executes the 'note' CLI command, sending a quick note to the
// running daemon for classification.
func runNote(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("note", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent note <text>

Description:
  Record a quick note. The note goes through the same classification
  pipeline as everything else: it lands in today's daily log and may
  create or advance a to-do.

Examples:
  soul-agent note "switched to the billing refactor"
  soul-agent note todo: review the migration PR
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		errors.FatalError(errors.NewInputError(
			"Note text is empty",
			"The note command needs the text as arguments",
			`Run: soul-agent note "what you are working on"`,
		), globals.JSON)
	}

	cfg := loadConfig(globals)

	var resp struct {
		Queued bool `json:"queued"`
	}
	if err := newClient(cfg.Port).post("/note", map[string]string{"text": text}, &resp); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(resp)
		return
	}
	if resp.Queued {
		ui.Success("Note queued")
	} else {
		ui.Warning("Note dropped as a duplicate")
	}
}
