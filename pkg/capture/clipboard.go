// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package capture holds the producers that feed the ingest queue:
// clipboard and browser-history pollers, the filesystem watcher, the
// keystroke tap, and the terminal command buffer behind the HTTP
// surface. Each producer runs on its own goroutine and degrades
// silently when its platform facility is unavailable.
package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"

	"github.com/AustinWp/soul-agent/pkg/ingest"
)

const (
	clipboardMinLen = 10
	clipboardMaxLen = 10_000
)

// readClipboard is swappable in tests.
var readClipboard = clipboard.ReadAll

// ClipboardPoller emits clipboard text when it changes.
type ClipboardPoller struct {
	queue    *ingest.Queue
	interval time.Duration
	logger   *slog.Logger

	lastText string
}

// NewClipboardPoller creates a poller with the given interval.
func NewClipboardPoller(queue *ingest.Queue, interval time.Duration, logger *slog.Logger) *ClipboardPoller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClipboardPoller{queue: queue, interval: interval, logger: logger}
}

// Run polls until ctx is canceled. A read error on the first poll
// disables the poller for the rest of the process.
func (p *ClipboardPoller) Run(ctx context.Context) {
	// seed with the current content so startup does not re-emit it
	if text, err := readClipboard(); err == nil {
		p.lastText = text
	} else {
		p.logger.Warn("capture.clipboard.unavailable", "error", err)
		return
	}
	p.logger.Info("capture.clipboard.start", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("capture.clipboard.stop")
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *ClipboardPoller) poll() {
	text, err := readClipboard()
	if err != nil {
		p.logger.Debug("capture.clipboard.read.failed", "error", err)
		return
	}
	if len(text) < clipboardMinLen || text == p.lastText {
		return
	}
	p.lastText = text

	if len(text) > clipboardMaxLen {
		text = text[:clipboardMaxLen]
	}
	p.queue.Put(ingest.NewItem(text, ingest.SourceClipboard, time.Now()))
}
