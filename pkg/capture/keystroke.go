// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	hook "github.com/robotn/gohook"

	"github.com/AustinWp/soul-agent/pkg/ingest"
)

const (
	// keystrokeIdleFlush emits the buffer after this much quiet.
	keystrokeIdleFlush = 5 * time.Second

	// keystrokeMinLen discards buffers shorter than this on flush.
	keystrokeMinLen = 10
)

// KeyEvent is one character-producing keyboard event.
type KeyEvent struct {
	Rune rune
	// App is the frontmost application identifier at event time, used
	// to suppress capture inside dedicated tools.
	App string
	// Secure marks events from a secure input field (passwords).
	Secure bool
}

// KeyEventSource delivers system-wide keyboard events. The production
// implementation wraps the OS hook; tests feed a channel.
type KeyEventSource interface {
	// Events starts delivery; the channel closes when ctx is canceled
	// or the OS denies the hook.
	Events(ctx context.Context) (<-chan KeyEvent, error)
}

// KeystrokeTap buffers typed characters and enqueues them as
// input-method items after an idle gap.
type KeystrokeTap struct {
	queue     *ingest.Queue
	source    KeyEventSource
	dedicated map[string]bool
	logger    *slog.Logger

	mu     sync.Mutex
	buf    strings.Builder
	timer  *time.Timer
	nowFn  func() time.Time
}

// NewKeystrokeTap creates a tap. dedicatedApps lists application
// identifiers whose input is never captured (terminals, tool clients).
func NewKeystrokeTap(queue *ingest.Queue, source KeyEventSource, dedicatedApps []string, logger *slog.Logger) *KeystrokeTap {
	if logger == nil {
		logger = slog.Default()
	}
	if source == nil {
		source = &hookSource{}
	}
	dedicated := make(map[string]bool, len(dedicatedApps))
	for _, app := range dedicatedApps {
		dedicated[strings.ToLower(app)] = true
	}
	return &KeystrokeTap{
		queue:     queue,
		source:    source,
		dedicated: dedicated,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// Run consumes events until ctx is canceled. If the OS denies the
// keyboard hook the tap logs once and returns.
func (t *KeystrokeTap) Run(ctx context.Context) {
	events, err := t.source.Events(ctx)
	if err != nil {
		t.logger.Warn("capture.keystroke.unavailable", "error", err)
		return
	}
	t.logger.Info("capture.keystroke.start")

	for {
		select {
		case <-ctx.Done():
			t.flush()
			t.logger.Info("capture.keystroke.stop")
			return
		case ev, ok := <-events:
			if !ok {
				t.flush()
				t.logger.Info("capture.keystroke.stop")
				return
			}
			t.handle(ev)
		}
	}
}

func (t *KeystrokeTap) handle(ev KeyEvent) {
	if ev.Secure || t.dedicated[strings.ToLower(ev.App)] {
		return
	}
	if ev.Rune == 0 || (!unicode.IsGraphic(ev.Rune) && ev.Rune != ' ') {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.WriteRune(ev.Rune)
	if t.timer == nil {
		t.timer = time.AfterFunc(keystrokeIdleFlush, t.flush)
	} else {
		t.timer.Reset(keystrokeIdleFlush)
	}
}

// flush emits the buffer if it reached the minimum length.
func (t *KeystrokeTap) flush() {
	t.mu.Lock()
	text := t.buf.String()
	t.buf.Reset()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	now := t.nowFn()
	t.mu.Unlock()

	if len([]rune(text)) < keystrokeMinLen {
		return
	}
	t.queue.Put(ingest.NewItem(text, ingest.SourceInputMethod, now))
}

// hookSource adapts the system keyboard hook to KeyEventSource.
type hookSource struct{}

func (h *hookSource) Events(ctx context.Context) (<-chan KeyEvent, error) {
	raw := hook.Start()
	out := make(chan KeyEvent)

	go func() {
		defer close(out)
		defer hook.End()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-raw:
				if !ok {
					return
				}
				if ev.Kind != hook.KeyDown || ev.Keychar == 0 {
					continue
				}
				select {
				case out <- KeyEvent{Rune: rune(ev.Keychar)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
