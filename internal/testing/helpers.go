// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"testing"
	"time"

	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

// SetupTestVault creates a vault rooted in a fresh temp directory.
// The directory is removed when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    store := testing.SetupTestVault(t)
//	    // Vault is ready with its standard directory layout.
//	}
func SetupTestVault(t *testing.T) *vault.Store {
	t.Helper()

	store, err := vault.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create test vault: %v", err)
	}
	return store
}

// SeedTask writes an active task file with the given id, text, priority
// and creation date (YYYY-MM-DD). The created date is written verbatim,
// so tests can backdate tasks to exercise stall detection.
//
// Example:
//
//	testing.SeedTask(t, store, "3fa9c2d1", "migrate the database", "P1", "2026-03-10")
func SeedTask(t *testing.T, store *vault.Store, id, text, priority, created string) {
	t.Helper()

	fields := map[string]string{
		"id":       id,
		"type":     "todo",
		"status":   "active",
		"priority": priority,
		"created":  created,
	}
	if err := store.Write("todos/active", "task-"+id+".md", vault.Build(fields, text)); err != nil {
		t.Fatalf("failed to seed task %s: %v", id, err)
	}
}

// SeedDoneTask writes a completed task under todos/done/.
func SeedDoneTask(t *testing.T, store *vault.Store, id, text, created string) {
	t.Helper()

	fields := map[string]string{
		"id":       id,
		"type":     "todo",
		"status":   "done",
		"priority": "P2",
		"created":  created,
	}
	if err := store.Write("todos/done", "task-"+id+".md", vault.Build(fields, text)); err != nil {
		t.Fatalf("failed to seed done task %s: %v", id, err)
	}
}

// SeedDailyEntry appends one classified line to the daily log for ts.
//
// Example:
//
//	testing.SeedDailyEntry(t, log, "fixed the parser", "terminal", "coding", ts)
func SeedDailyEntry(t *testing.T, log *dailylog.Log, text, source, category string, ts time.Time) {
	t.Helper()

	if err := log.Append(text, source, ts, category, nil, 3); err != nil {
		t.Fatalf("failed to seed daily entry: %v", err)
	}
}

// SeedCoreMemory writes core/MEMORY.md with the given content.
func SeedCoreMemory(t *testing.T, store *vault.Store, content string) {
	t.Helper()

	if err := store.Write("core", "MEMORY.md", []byte(content)); err != nil {
		t.Fatalf("failed to seed core memory: %v", err)
	}
}

// RequireFile reads a vault file and fails the test when it is missing.
func RequireFile(t *testing.T, store *vault.Store, dir, name string) []byte {
	t.Helper()

	content, err := store.Read(dir, name)
	if err != nil {
		t.Fatalf("failed to read %s/%s: %v", dir, name, err)
	}
	if content == nil {
		t.Fatalf("expected %s/%s to exist", dir, name)
	}
	return content
}
