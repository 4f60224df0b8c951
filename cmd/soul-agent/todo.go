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
	"github.com/AustinWp/soul-agent/pkg/todo"
)

// runTodo dispatches the 'todo' subcommands. Task files live in the
// vault, so these operate directly on disk and work whether or not
// the daemon is running.
func runTodo(args []string, globals GlobalFlags) {
	usage := func() {
		fmt.Fprintf(os.Stderr, `Usage: soul-agent todo <subcommand>

Subcommands:
  list [--status active|stalled|all|done]   List tasks
  add <text> [--priority P1|P2|P3]          Create a task
  done <id>                                  Complete a task
  progress <id>                              Show a task's activity log

Examples:
  soul-agent todo list
  soul-agent todo list --status stalled
  soul-agent todo add "review the migration PR" --priority P1
  soul-agent todo done 3fa9c2d1
`)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		runTodoList(args[1:], globals)
	case "add":
		runTodoAdd(args[1:], globals)
	case "done":
		runTodoDone(args[1:], globals)
	case "progress":
		runTodoProgress(args[1:], globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown todo subcommand: %s\n", args[0])
		usage()
		os.Exit(1)
	}
}

func runTodoList(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("todo list", flag.ExitOnError)
	status := fs.String("status", "active", "Filter: active, stalled, all, done")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	todos := openTodos(loadConfig(globals), globals)

	var (
		items []*todo.Item
		err   error
	)
	if *status == "stalled" {
		items, err = todos.Stalled(todo.DefaultStaleDays)
	} else {
		items, err = todos.List(*status)
	}
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Cannot list tasks",
			err.Error(),
			"Status must be one of: active, stalled, all, done",
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(items)
		return
	}

	if len(items) == 0 {
		ui.Info(fmt.Sprintf("No %s tasks", *status))
		return
	}

	ui.Header(fmt.Sprintf("Tasks (%s)", *status))
	for _, item := range items {
		marker := " "
		if item.Status == todo.StatusDone {
			marker = "x"
		}
		fmt.Printf("[%s] %s %s %s\n", marker, item.ID, item.Priority, item.Text)
		detail := "created " + item.Created
		if item.LastActivity != "" {
			detail += ", last activity " + item.LastActivity
		}
		fmt.Printf("    %s\n", ui.DimText(detail))
	}
}

func runTodoAdd(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("todo add", flag.ExitOnError)
	priority := fs.String("priority", "P2", "Task priority: P1, P2, or P3")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		errors.FatalError(errors.NewInputError(
			"Task text is empty",
			"The add subcommand needs the task text as arguments",
			`Run: soul-agent todo add "what needs doing"`,
		), globals.JSON)
	}

	todos := openTodos(loadConfig(globals), globals)
	id, err := todos.Create(text, *priority, false)
	if err != nil {
		errors.FatalError(errors.NewVaultError(
			"Cannot create the task",
			err.Error(),
			"Check that the vault is writable",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]string{"id": id})
		return
	}
	ui.Successf("Created task %s", id)
}

func runTodoDone(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("todo done", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Task id is required",
			"The done subcommand takes exactly one task id",
			"Run 'soul-agent todo list' to find the id",
		), globals.JSON)
	}

	id := fs.Arg(0)
	todos := openTodos(loadConfig(globals), globals)
	found, err := todos.Complete(id)
	if err != nil {
		errors.FatalError(errors.NewVaultError(
			"Cannot complete the task",
			err.Error(),
			"Check that the vault is writable",
			err,
		), globals.JSON)
	}
	if !found {
		errors.FatalError(errors.NewNotFoundError(
			"Task not found",
			fmt.Sprintf("No active task matches id %s", id),
			"Run 'soul-agent todo list' to see active tasks",
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{"id": id, "done": true})
		return
	}
	ui.Successf("Completed task %s", id)
}

func runTodoProgress(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("todo progress", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Task id is required",
			"The progress subcommand takes exactly one task id",
			"Run 'soul-agent todo list' to find the id",
		), globals.JSON)
	}

	id := fs.Arg(0)
	todos := openTodos(loadConfig(globals), globals)
	item, err := todos.Get(id)
	if err != nil {
		errors.FatalError(errors.NewVaultError(
			"Cannot read the task",
			err.Error(),
			"Check that the vault is readable",
			err,
		), globals.JSON)
	}
	if item == nil {
		errors.FatalError(errors.NewNotFoundError(
			"Task not found",
			fmt.Sprintf("No task matches id %s", id),
			"Run 'soul-agent todo list --status all'",
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(item)
		return
	}

	ui.Header(item.Text)
	fmt.Printf("%s %s  %s %s  %s %s\n",
		ui.Label("ID:"), item.ID,
		ui.Label("Priority:"), item.Priority,
		ui.Label("Status:"), item.Status,
	)
	if len(item.Activity) == 0 {
		ui.Info("No recorded activity yet")
		return
	}
	ui.SubHeader("Activity:")
	for _, entry := range item.Activity {
		sources := strings.Join(entry.Sources, ", ")
		fmt.Printf("  %s  %s  %s\n", entry.Date, ui.CountText(entry.Count), ui.DimText(sources))
	}
}
