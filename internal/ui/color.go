// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package ui provides terminal output helpers for the soul-agent CLI.
//
// Color output respects the --no-color flag and the NO_COLOR environment
// variable, and is automatically disabled when stdout is not a TTY.
//
// Color usage guidelines:
//   - Red: errors, failures
//   - Yellow: warnings, stalled tasks
//   - Green: success, completed tasks
//   - Cyan: info, counts
//   - Bold: headers, important labels
//   - Dim: less important details, paths, timestamps
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Pre-configured color instances for consistent CLI output.
var (
	// Red is used for error messages and failures.
	Red = color.New(color.FgRed)

	// Yellow is used for warnings and stalled tasks.
	Yellow = color.New(color.FgYellow)

	// Green is used for success messages and completed tasks.
	Green = color.New(color.FgGreen)

	// Cyan is used for informational messages and counts.
	Cyan = color.New(color.FgCyan)

	// Bold is used for headers and important labels.
	Bold = color.New(color.Bold)

	// Dim is used for less important details like paths and timestamps.
	Dim = color.New(color.Faint)
)

// InitColors configures global color output based on the noColor flag.
//
// Call early in main() after parsing flags. The fatih/color library
// already respects NO_COLOR; this adds explicit control via the flag.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a green success message with a checkmark prefix.
//
// Example output: "✓ Note queued"
func Success(msg string) {
	_, _ = Green.Println("✓ " + msg)
}

// Successf prints a formatted green success message with a checkmark prefix.
func Successf(format string, args ...any) {
	_, _ = Green.Printf("✓ "+format+"\n", args...)
}

// Warning prints a yellow warning message with a warning symbol prefix.
//
// Example output: "⚠ 2 tasks stalled for 3+ days"
func Warning(msg string) {
	_, _ = Yellow.Println("⚠ " + msg)
}

// Warningf prints a formatted yellow warning message with a warning symbol prefix.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Printf("⚠ "+format+"\n", args...)
}

// Error prints a red error message with an X prefix.
//
// Example output: "✗ Cannot reach the daemon"
func Error(msg string) {
	_, _ = Red.Println("✗ " + msg)
}

// Errorf prints a formatted red error message with an X prefix.
func Errorf(format string, args ...any) {
	_, _ = Red.Printf("✗ "+format+"\n", args...)
}

// Info prints a cyan informational message with an info symbol prefix.
//
// Example output: "ℹ Generating daily insight..."
func Info(msg string) {
	_, _ = Cyan.Println("ℹ " + msg)
}

// Infof prints a formatted cyan informational message with an info symbol prefix.
func Infof(format string, args ...any) {
	_, _ = Cyan.Printf("ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline separator.
//
// Example output:
//
//	Active Tasks
//	============
func Header(text string) {
	_, _ = Bold.Println(text)
	fmt.Println(strings.Repeat("=", len(text)))
}

// SubHeader prints a bold sub-header without an underline.
//
// Example output: "Stalled:"
func SubHeader(text string) {
	_, _ = Bold.Println(text)
}

// Label returns a bold-formatted label string for inline use.
//
// Example: fmt.Printf("%s %s\n", ui.Label("Vault:"), vaultPath)
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for less important text.
//
// Example: fmt.Printf("  created %s\n", ui.DimText(created))
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count value for statistics display.
//
// Example: fmt.Printf("  Pending: %s\n", ui.CountText(pending))
func CountText(count int) string {
	return Cyan.Sprint(count)
}
