// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle archives vault resources whose TTL has run out.
// The janitor pass consumes the expires field written by the lifecycle
// frontmatter helpers and moves expired files under archive/ so the
// working directories stay small without losing history.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AustinWp/soul-agent/pkg/vault"
)

// DefaultInterval is how often the background janitor runs a pass.
const DefaultInterval = time.Hour

// scanDirs are the vault directories subject to expiry.
var scanDirs = []string{
	"logs",
	"insights",
	"todos/active",
	"todos/done",
}

const archiveDir = "archive"

// Stats summarizes one janitor pass.
type Stats struct {
	Scanned  int `json:"scanned"`
	Archived int `json:"archived"`
}

// Janitor periodically sweeps expired resources into the archive.
type Janitor struct {
	store    *vault.Store
	interval time.Duration
	logger   *slog.Logger

	nowFn func() time.Time // test seam
}

// New creates a Janitor over the vault. interval <= 0 uses
// DefaultInterval.
func New(store *vault.Store, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		store:    store,
		interval: interval,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// RunOnce sweeps every managed directory, archiving each file whose
// expires date has passed. The archive filename carries the source
// directory so distinct directories cannot collide.
func (j *Janitor) RunOnce() (Stats, error) {
	var stats Stats
	today := j.nowFn()

	for _, dir := range scanDirs {
		names, err := j.store.List(dir)
		if err != nil {
			return stats, err
		}
		for _, name := range names {
			content, err := j.store.Read(dir, name)
			if err != nil || content == nil {
				continue
			}
			fields, _ := vault.Parse(content)
			if !vault.IsExpired(fields, today) {
				continue
			}
			stats.Scanned++
			if err := j.archive(dir, name, content); err != nil {
				j.logger.Warn("janitor.archive.failed", "dir", dir, "file", name, "error", err)
				continue
			}
			stats.Archived++
		}
	}

	if stats.Archived > 0 {
		janitorMetrics.archived.Add(float64(stats.Archived))
	}
	j.logger.Debug("janitor.pass", "scanned", stats.Scanned, "archived", stats.Archived)
	return stats, nil
}

// archive copies the file under archive/ with a directory-qualified
// name, then removes the original.
func (j *Janitor) archive(dir, name string, content []byte) error {
	archiveName := strings.ReplaceAll(dir, "/", "_") + "_" + name
	if err := j.store.Write(archiveDir, archiveName, content); err != nil {
		return err
	}
	_, err := j.store.Delete(dir, name)
	return err
}

// Run sweeps once immediately, then on every interval tick until the
// context is canceled.
func (j *Janitor) Run(ctx context.Context) error {
	j.logger.Info("janitor.start", "interval", j.interval)

	if _, err := j.RunOnce(); err != nil {
		j.logger.Warn("janitor.pass.failed", "error", err)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor.stop")
			return nil
		case <-ticker.C:
			if _, err := j.RunOnce(); err != nil {
				j.logger.Warn("janitor.pass.failed", "error", err)
			}
		}
	}
}
