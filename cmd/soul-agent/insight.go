// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/AustinWp/soul-agent/internal/errors"
	"github.com/AustinWp/soul-agent/internal/output"
	"github.com/AustinWp/soul-agent/internal/ui"
)

// runInsight prints the daily report for a date, generating it first
// if the scheduler has not produced one yet.
func runInsight(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("insight", flag.ExitOnError)
	dateFlag := fs.String("date", "today", "Report date (YYYY-MM-DD or 'today')")
	regen := fs.Bool("regen", false, "Regenerate even if a report already exists")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent insight [--date YYYY-MM-DD] [--regen]

Prints the daily insight report: time allocation across categories,
completed and stalled tasks, and advice when an LLM provider is
configured. Reports are generated on demand if the 20:00 scheduler
has not run yet.

Flags:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	date := time.Now()
	if *dateFlag != "" && *dateFlag != "today" {
		parsed, err := time.ParseInLocation("2006-01-02", *dateFlag, time.Local)
		if err != nil {
			errors.FatalError(errors.NewInputError(
				"Invalid date",
				fmt.Sprintf("%q is not a YYYY-MM-DD date", *dateFlag),
				"Run: soul-agent insight --date 2026-08-25",
			), globals.JSON)
		}
		date = parsed
	}

	cfg := loadConfig(globals)
	engine := buildEngine(cfg, globals)

	var report string
	if !*regen {
		loaded, err := engine.Load(date)
		if err != nil {
			errors.FatalError(errors.NewVaultError(
				"Cannot read the insight report",
				err.Error(),
				"Check that the vault is readable",
				err,
			), globals.JSON)
		}
		report = loaded
	}
	if report == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		generated, err := engine.Generate(ctx, date)
		if err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot generate the insight report",
				err.Error(),
				"Check the daemon log for provider errors",
				err,
			), globals.JSON)
		}
		report = generated
	}

	if globals.JSON {
		_ = output.JSON(map[string]string{
			"date":   date.Format("2006-01-02"),
			"report": report,
		})
		return
	}
	if report == "" {
		ui.Info("No activity recorded for " + date.Format("2006-01-02"))
		return
	}
	fmt.Println(report)
}
