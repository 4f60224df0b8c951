// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package errors provides structured error handling for the soul-agent CLI.
//
// It defines UserError, which carries what went wrong, why it happened,
// and how to fix it, plus a semantic exit code per error category:
//
//	err := errors.NewVaultError(
//	    "Cannot write to the vault",
//	    "The vault directory is not writable",
//	    "Check permissions on ~/vault or set vault_path in the config",
//	    underlyingErr,
//	)
//	errors.FatalError(err, false)
//
// Exit codes follow Unix conventions:
//   - ExitSuccess (0): successful execution
//   - ExitConfig (1): configuration errors (missing/invalid config)
//   - ExitVault (2): vault storage errors (unwritable, corrupt files)
//   - ExitNetwork (3): network/LLM API errors (connection failed, timeout)
//   - ExitInput (4): invalid user input (bad arguments, validation)
//   - ExitPermission (5): permission denied (file access, input monitoring)
//   - ExitNotFound (6): resource not found (task, day, insight)
//   - ExitInternal (10): internal errors (bugs, panics)
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates configuration errors (missing/invalid config files).
	ExitConfig = 1

	// ExitVault indicates vault storage errors (unwritable root, corrupt files).
	ExitVault = 2

	// ExitNetwork indicates network or LLM API errors (connection failed, timeout).
	ExitNetwork = 3

	// ExitInput indicates invalid user input (bad arguments, validation errors).
	ExitInput = 4

	// ExitPermission indicates permission denied errors (file access,
	// input-monitoring consent).
	ExitPermission = 5

	// ExitNotFound indicates resource not found errors (task, day, insight).
	ExitNotFound = 6

	// ExitInternal indicates internal errors (bugs, unexpected panics).
	// Exit code 10 signals "this is a bug that should be reported".
	ExitInternal = 10
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: what went wrong (user-facing error description)
//   - Cause: why it happened (diagnostic information)
//   - Fix: how to fix it (actionable suggestion)
//
// UserError also carries an exit code for consistent CLI exit behavior
// and optionally wraps an underlying error for error chain compatibility.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred.
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// ExitCode is the exit code that should be used when exiting due to this error.
	ExitCode int

	// Err is the underlying error, if any. Enables errors.Is/As over chains.
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Example:
//
//	return NewConfigError(
//	    "Cannot load soul-agent configuration",
//	    "The config file ~/.soul-agent/config.json is malformed",
//	    "Fix the JSON syntax or delete the file to use defaults",
//	    err,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitConfig,
		Err:      err,
	}
}

// NewVaultError creates a vault storage error with exit code ExitVault.
//
// Use this for errors reading or writing the Markdown vault.
func NewVaultError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitVault,
		Err:      err,
	}
}

// NewNetworkError creates a network error with exit code ExitNetwork.
//
// Use this for errors reaching the daemon's HTTP surface or the LLM API.
//
// Example:
//
//	return NewNetworkError(
//	    "Cannot reach the soul-agent daemon",
//	    "Connection refused on 127.0.0.1:8330",
//	    "Start the daemon with 'soul-agent start'",
//	    err,
//	)
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitNetwork,
		Err:      err,
	}
}

// NewInputError creates an input validation error with exit code ExitInput.
//
// Input errors typically do not wrap an underlying error.
//
// Example:
//
//	return NewInputError(
//	    "Invalid recall period",
//	    "Period must be one of: today, week, month",
//	    "Run 'soul-agent recall week'",
//	)
func NewInputError(msg, cause, fix string) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInput,
		Err:      nil,
	}
}

// NewPermissionError creates a permission denied error with exit code
// ExitPermission.
//
// Use this for file access failures and missing input-monitoring consent.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitPermission,
		Err:      err,
	}
}

// NewNotFoundError creates a resource not found error with exit code
// ExitNotFound.
//
// Example:
//
//	return NewNotFoundError(
//	    "Task not found",
//	    "No active task matches id 3fa9c2d1",
//	    "Run 'soul-agent todo list' to see active tasks",
//	)
func NewNotFoundError(msg, cause, fix string) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitNotFound,
		Err:      nil,
	}
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for unexpected errors that indicate bugs. Internal errors
// should be reported to the maintainers.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInternal,
		Err:      err,
	}
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// The output includes colored sections for Error (red/bold), Cause
// (yellow), and Fix (green). Color output respects the NO_COLOR
// environment variable and can be explicitly disabled with noColor.
// Empty Cause or Fix fields are omitted.
//
// Example output:
//
//	Error: Cannot write to the vault
//	Cause: The vault directory is not writable
//	Fix:   Check permissions on ~/vault or set vault_path in the config
func (e *UserError) Format(noColor bool) string {
	// Save and restore global color state to avoid side effects
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON represents error information in JSON format for --json mode.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
// Empty Cause and Fix fields are omitted via omitempty.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// FatalError prints the error and exits with the appropriate code.
//
// If the error is a UserError, it uses Format() for colored output or
// ToJSON() for JSON mode. For non-UserError types, it prints a simple
// error message and exits with ExitInternal.
//
// This function never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			// Encoding failure is ignored; the exit code still carries the result.
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
