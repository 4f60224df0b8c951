// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package main implements the soul-agent CLI: a background daemon that
// captures personal digital activity into a Markdown vault, plus the
// commands for talking to it and reading what it produced.
//
// Usage:
//
//	soul-agent start                 Start the daemon
//	soul-agent stop                  Stop the daemon
//	soul-agent status [--json]       Show daemon status
//	soul-agent note <text>           Record a quick note
//	soul-agent todo <subcommand>     Manage tasks
//	soul-agent insight [--date]      Show the daily insight report
//	soul-agent recall [period]       Review captured activity
//	soul-agent search <query>        Search the vault
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/AustinWp/soul-agent/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are shared across all subcommands.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	NoColor    bool
}

func main() {
	fs := flag.NewFlagSet("soul-agent", flag.ExitOnError)
	var (
		showVersion = fs.Bool("version", false, "Show version and exit")
		configPath  = fs.String("config", "", "Path to config file (default: ~/.soul-agent/config.json)")
		jsonOutput  = fs.Bool("json", false, "Output as JSON")
		noColor     = fs.Bool("no-color", false, "Disable colored output")
	)
	fs.SetInterspersed(false)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `soul-agent - personal activity capture daemon

soul-agent watches your clipboard, browser history, files, and shell,
classifies what you did, and files it into a Markdown vault: a daily
log, auto-detected to-dos, and a nightly insight report.

Usage:
  soul-agent <command> [options]

Commands:
  start      Start the daemon (use --foreground to stay attached)
  stop       Stop the daemon
  status     Show daemon and queue status
  note       Record a quick note
  todo       Manage tasks (list, add, done, progress)
  insight    Show or generate the daily insight report
  recall     Review captured activity (today, week, month)
  search     Search daily logs and notes

Global Options:
  --config     Path to config file
  --json       Output as JSON
  --no-color   Disable colored output
  --version    Show version and exit

Examples:
  soul-agent start
  soul-agent note "switched to the billing refactor"
  soul-agent todo list
  soul-agent recall week
  soul-agent insight --date 2026-03-14

Data Storage:
  The vault location is set by vault_path in ~/.soul-agent/config.json.

Environment Variables:
  DEEPSEEK_API_KEY   API key for the default classifier backend

For detailed command help: soul-agent <command> --help

`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("soul-agent version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		ConfigPath: *configPath,
		JSON:       *jsonOutput,
		NoColor:    *noColor,
	}
	ui.InitColors(globals.NoColor)

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "start":
		runStart(cmdArgs, globals)
	case "stop":
		runStop(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "note":
		runNote(cmdArgs, globals)
	case "todo":
		runTodo(cmdArgs, globals)
	case "insight":
		runInsight(cmdArgs, globals)
	case "recall":
		runRecall(cmdArgs, globals)
	case "search":
		runSearch(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		fs.Usage()
		os.Exit(1)
	}
}
