// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/AustinWp/soul-agent/internal/errors"
	"github.com/AustinWp/soul-agent/internal/output"
	"github.com/AustinWp/soul-agent/internal/ui"
	"github.com/AustinWp/soul-agent/pkg/insight"
)

// runRecall summarizes recent activity for a period: per-day entries,
// category allocation, and the current task list.
func runRecall(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("recall", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent recall [today|week|month]

Shows what you were doing over the period: daily log entries grouped
by day, time allocation per category, and active tasks. Defaults to
today.

Examples:
  soul-agent recall
  soul-agent recall week
  soul-agent recall month --json
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	period := insight.PeriodToday
	if fs.NArg() > 0 {
		period = fs.Arg(0)
	}

	cfg := loadConfig(globals)
	engine := buildEngine(cfg, globals)

	view, err := engine.Recall(period, time.Now())
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Cannot recall the period",
			err.Error(),
			"Period must be one of: today, week, month",
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(view)
		return
	}

	ui.Header(fmt.Sprintf("Recall: %s (%s to %s)", view.Period, view.From, view.To))

	empty := true
	for _, day := range view.Days {
		if len(day.Entries) == 0 {
			continue
		}
		empty = false
		ui.SubHeader(day.Date)
		for _, entry := range day.Entries {
			fmt.Printf("  %s  [%s] %s %s\n",
				entry.Time, entry.Category, entry.Text, ui.DimText("("+entry.Source+")"))
		}
		if len(day.Stats) > 0 {
			fmt.Print("  ")
			for i, stat := range day.Stats {
				if i > 0 {
					fmt.Print("  ")
				}
				fmt.Printf("%s %.0f%%", stat.Category, stat.Percent)
			}
			fmt.Println()
		}
	}
	if empty {
		ui.Info("No activity recorded for this period")
	}

	if len(view.Todos) > 0 {
		ui.SubHeader("Active tasks:")
		for _, item := range view.Todos {
			fmt.Printf("  %s %s %s\n", item.ID, item.Priority, item.Text)
		}
	}
}
