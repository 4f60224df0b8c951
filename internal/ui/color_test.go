// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"testing"

	"github.com/fatih/color"
)

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	InitColors(false)
	if color.NoColor {
		t.Error("InitColors(false): color.NoColor = true, expected false")
	}

	InitColors(true)
	if !color.NoColor {
		t.Error("InitColors(true): color.NoColor = false, expected true")
	}
}

func TestLabel(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	result := Label("Vault:")
	if result != "Vault:" {
		t.Errorf("Label() = %q, expected %q", result, "Vault:")
	}
}

func TestDimText(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	result := DimText("/home/user/vault")
	if result != "/home/user/vault" {
		t.Errorf("DimText() = %q, expected %q", result, "/home/user/vault")
	}
}

func TestCountText(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	tests := []struct {
		count int
		want  string
	}{
		{42, "42"},
		{0, "0"},
		{-1, "-1"},
	}
	for _, tt := range tests {
		if got := CountText(tt.count); got != tt.want {
			t.Errorf("CountText(%d) = %q, expected %q", tt.count, got, tt.want)
		}
	}
}

func TestMessageFunctions(t *testing.T) {
	// Smoke coverage: the helpers write to stdout, so just verify they
	// execute without panicking.
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	Success("note queued")
	Successf("%d items processed", 42)
	Warning("task stalled")
	Warningf("%d tasks stalled", 2)
	Error("daemon unreachable")
	Errorf("request failed: %v", "timeout")
	Info("generating insight")
	Infof("polling every %ds", 3)
	Header("Active Tasks")
	SubHeader("Stalled:")
}
