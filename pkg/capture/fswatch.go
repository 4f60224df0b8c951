// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/AustinWp/soul-agent/pkg/ingest"
)

const (
	previewChars = 500

	// debounceWindow coalesces the event bursts editors produce when
	// saving a file.
	debounceWindow = 500 * time.Millisecond
)

var ignoreDirs = map[string]bool{
	".git":          true,
	".obsidian":     true,
	"node_modules":  true,
	"__pycache__":   true,
	".venv":         true,
	"venv":          true,
	".tox":          true,
	".mypy_cache":   true,
	".pytest_cache": true,
	".idea":         true,
	".vscode":       true,
	"dist":          true,
	"build":         true,
}

var ignoreFiles = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	".gitkeep":    true,
	"desktop.ini": true,
}

var binaryExtensions = map[string]bool{
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".dmg": true,
	".exe": true, ".bin": true, ".iso": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".svg": true, ".webp": true, ".tiff": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wav": true, ".flac": true, ".ogg": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".pyc": true, ".so": true, ".dylib": true, ".dll": true, ".o": true, ".a": true,
	".sqlite": true, ".db": true, ".tmp": true, ".lock": true,
	".crdownload": true, ".part": true, ".download": true,
}

// FileWatcher emits one item per quiesced create/modify event under
// the watched roots.
type FileWatcher struct {
	queue  *ingest.Queue
	roots  []string
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingEvent
}

type pendingEvent struct {
	action string
	timer  *time.Timer
}

// NewFileWatcher watches the given root directories recursively.
func NewFileWatcher(queue *ingest.Queue, roots []string, logger *slog.Logger) *FileWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{
		queue:   queue,
		roots:   roots,
		logger:  logger,
		pending: make(map[string]*pendingEvent),
	}
}

// Run watches until ctx is canceled. Roots that cannot be watched are
// logged and skipped; with no watchable roots the watcher exits.
func (w *FileWatcher) Run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("capture.fswatch.unavailable", "error", err)
		return
	}
	defer watcher.Close()

	watched := 0
	for _, root := range w.roots {
		if err := w.addRecursive(watcher, root); err != nil {
			w.logger.Warn("capture.fswatch.root.failed", "root", root, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		w.logger.Warn("capture.fswatch.no_roots")
		return
	}
	w.logger.Info("capture.fswatch.start", "roots", watched)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			w.logger.Info("capture.fswatch.stop")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handle(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("capture.fswatch.error", "error", err)
		}
	}
}

func (w *FileWatcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if ignoreDirs[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (w *FileWatcher) handle(watcher *fsnotify.Watcher, event fsnotify.Event) {
	action := ""
	switch {
	case event.Has(fsnotify.Create):
		action = "created"
	case event.Has(fsnotify.Write):
		action = "modified"
	default:
		return
	}

	// new directories need their own watch
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if action == "created" && !ignoreDirs[filepath.Base(event.Name)] {
			_ = watcher.Add(event.Name)
		}
		return
	}

	if w.shouldIgnore(event.Name) {
		return
	}
	w.debounce(event.Name, action)
}

// debounce (re)arms a timer per path; the item is emitted only after
// the path has been quiet for the debounce window.
func (w *FileWatcher) debounce(path, action string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		if action == "created" {
			p.action = "created"
		}
		p.timer.Reset(debounceWindow)
		return
	}

	p := &pendingEvent{action: action}
	p.timer = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.pending, path)
		final := p.action
		w.mu.Unlock()
		w.emit(path, final)
	})
	w.pending[path] = p
}

func (w *FileWatcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *FileWatcher) emit(path, action string) {
	name := filepath.Base(path)
	text := fmt.Sprintf("[%s] %s", action, name)
	if preview := extractPreview(path); preview != "" {
		text = fmt.Sprintf("[%s] %s: %s", action, name, preview)
	}
	w.queue.Put(ingest.NewFileItem(text, path, action, name, time.Now()))
}

func (w *FileWatcher) shouldIgnore(path string) bool {
	name := filepath.Base(path)
	if ignoreFiles[name] {
		return true
	}
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	for _, part := range strings.Split(filepath.Dir(path), string(filepath.Separator)) {
		if ignoreDirs[part] {
			return true
		}
	}
	return false
}

// extractPreview reads the head of a text file, or "" for unreadable
// or non-UTF-8 content.
func extractPreview(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, previewChars*4)
	n, _ := f.Read(buf)
	if n == 0 {
		return ""
	}
	data := buf[:n]
	if !utf8.Valid(data) {
		// a read can split a multibyte rune at the boundary
		for n > 0 && !utf8.Valid(data[:n]) {
			n--
		}
		if n == 0 {
			return ""
		}
		data = data[:n]
	}

	runes := []rune(strings.TrimSpace(string(data)))
	if len(runes) > previewChars {
		runes = runes[:previewChars]
	}
	return string(runes)
}
