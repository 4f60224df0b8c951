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
	"github.com/AustinWp/soul-agent/pkg/vault"
)

// searchDirs mirrors the daemon's /search endpoint: logs, classified
// captures, notes, and active tasks.
var searchDirs = []string{"logs", "classified", "notes", "todos/active"}

func runSearch(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of results")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent search <query> [--limit N]

Case-insensitive substring search over the vault's logs, classified
captures, notes, and active tasks.

Examples:
  soul-agent search "billing migration"
  soul-agent search deepseek --limit 5
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		errors.FatalError(errors.NewInputError(
			"Search query is empty",
			"The search command needs the query as arguments",
			`Run: soul-agent search "what you are looking for"`,
		), globals.JSON)
	}
	if *limit <= 0 {
		*limit = 20
	}

	cfg := loadConfig(globals)
	store := openVault(cfg, globals)

	results := store.Search(query, searchDirs, *limit)

	if globals.JSON {
		if results == nil {
			results = []vault.SearchResult{}
		}
		_ = output.JSON(results)
		return
	}

	if len(results) == 0 {
		ui.Info("No matches for " + query)
		return
	}
	ui.Header(fmt.Sprintf("%d match(es) for %q", len(results), query))
	for _, res := range results {
		fmt.Printf("%s\n    %s\n", res.Path, ui.DimText(res.Snippet))
	}
}
