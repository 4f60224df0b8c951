// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package testing provides test helpers for soul-agent tests.
//
// It wraps vault setup and data seeding so package tests can build a
// realistic on-disk state in a couple of lines.
//
// # Quick Start
//
// Use SetupTestVault to create a vault rooted in a temp directory:
//
//	func TestMyFeature(t *testing.T) {
//	    store := testing.SetupTestVault(t)
//
//	    testing.SeedTask(t, store, "3fa9c2d1", "write the release notes", "P2", "2026-03-10")
//
//	    // Run your tests...
//	}
//
// # Seeding Test Data
//
// The package provides helpers for writing common vault entities:
//   - SeedTask: write an active task file with frontmatter
//   - SeedDoneTask: write a completed task under todos/done/
//   - SeedDailyEntry: append a line to a daily log
//   - SeedCoreMemory: write core/MEMORY.md
//
// # Reading Back
//
//   - RequireFile: read a vault file, failing the test when missing
package testing
