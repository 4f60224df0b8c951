// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package ingest defines the records flowing through the capture
// pipeline and the bounded, deduplicating queue that couples the
// producers to the single pipeline consumer.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Source identifies where a captured item came from.
type Source string

const (
	SourceNote        Source = "note"
	SourceClipboard   Source = "clipboard"
	SourceBrowser     Source = "browser"
	SourceFile        Source = "file"
	SourceTerminal    Source = "terminal"
	SourceClaudeCode  Source = "claude-code"
	SourceInputMethod Source = "input-method"
)

// Item is a raw capture before classification.
type Item struct {
	Text      string
	Source    Source
	Timestamp time.Time
	Meta      map[string]string
}

// NewItem builds a plain item with no source-specific metadata.
func NewItem(text string, source Source, ts time.Time) *Item {
	return &Item{Text: text, Source: source, Timestamp: ts}
}

// NewBrowserItem builds a browser-history item carrying url and title.
func NewBrowserItem(text, url, title string, ts time.Time) *Item {
	return &Item{
		Text:      text,
		Source:    SourceBrowser,
		Timestamp: ts,
		Meta:      map[string]string{"url": url, "title": title},
	}
}

// NewFileItem builds a filesystem-event item carrying path and action.
func NewFileItem(text, path, action, filename string, ts time.Time) *Item {
	return &Item{
		Text:      text,
		Source:    SourceFile,
		Timestamp: ts,
		Meta:      map[string]string{"path": path, "action": action, "filename": filename},
	}
}

// NewTerminalItem builds a terminal-command item.
func NewTerminalItem(text, command string, exitCode, durationSec int, ts time.Time) *Item {
	return &Item{
		Text:      text,
		Source:    SourceTerminal,
		Timestamp: ts,
		Meta: map[string]string{
			"command":   command,
			"exit_code": strconv.Itoa(exitCode),
			"duration":  strconv.Itoa(durationSec),
		},
	}
}

// URL returns the browser metadata url, if any.
func (it *Item) URL() string { return it.Meta["url"] }

// Path returns the filesystem metadata path, if any.
func (it *Item) Path() string { return it.Meta["path"] }

// Command returns the terminal metadata command, if any.
func (it *Item) Command() string { return it.Meta["command"] }

// Hash16 is the dedup key: the first 16 hex characters of the
// SHA-256 of the item text.
func (it *Item) Hash16() string {
	sum := sha256.Sum256([]byte(it.Text))
	return hex.EncodeToString(sum[:])[:16]
}

// Category labels assigned by the classifier.
const (
	CategoryCoding        = "coding"
	CategoryWork          = "work"
	CategoryLearning      = "learning"
	CategoryCommunication = "communication"
	CategoryBrowsing      = "browsing"
	CategoryLife          = "life"
)

// ValidCategory reports whether c is one of the six known categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryCoding, CategoryWork, CategoryLearning,
		CategoryCommunication, CategoryBrowsing, CategoryLife:
		return true
	}
	return false
}

// Action types a classification may attach to an item.
const (
	ActionNewTask      = "new_task"
	ActionTaskProgress = "task_progress"
	ActionTaskDone     = "task_done"
)

// ValidAction reports whether a is a known action type.
func ValidAction(a string) bool {
	return a == ActionNewTask || a == ActionTaskProgress || a == ActionTaskDone
}

// Classified is an Item after the LLM (or the fallback rules) has
// labeled it. ActionType and the related fields are empty unless the
// classifier detected a to-do side effect.
type Classified struct {
	Item

	Category      string
	Tags          []string
	Importance    int
	Summary       string
	ActionType    string
	ActionDetail  string
	RelatedTodoID string
}
