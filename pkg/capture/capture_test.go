// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AustinWp/soul-agent/pkg/ingest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newQueue() *ingest.Queue {
	return ingest.NewQueue(ingest.WithBatchSize(100))
}

func drainAll(q *ingest.Queue) []*ingest.Item {
	return q.GetBatch(context.Background(), 0)
}

// --- clipboard ---

func withClipboard(t *testing.T, fn func() (string, error)) {
	t.Helper()
	orig := readClipboard
	readClipboard = fn
	t.Cleanup(func() { readClipboard = orig })
}

func TestClipboard_EmitsOnChange(t *testing.T) {
	var mu sync.Mutex
	current := "initial clipboard content"
	withClipboard(t, func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		return current, nil
	})

	q := newQueue()
	p := NewClipboardPoller(q, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, q.PendingCount(), "seed content must not be emitted")

	mu.Lock()
	current = "something new on the clipboard"
	mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for q.PendingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	items := drainAll(q)
	require.Len(t, items, 1)
	assert.Equal(t, "something new on the clipboard", items[0].Text)
	assert.Equal(t, ingest.SourceClipboard, items[0].Source)
}

func TestClipboard_ShortAndRepeatedSkipped(t *testing.T) {
	withClipboard(t, func() (string, error) { return "hi", nil })

	q := newQueue()
	p := NewClipboardPoller(q, time.Hour, nil)
	p.lastText = "previous"

	p.poll()
	assert.Equal(t, 0, q.PendingCount(), "below minimum length")

	withClipboard(t, func() (string, error) { return "previous", nil })
	p.lastText = "previous"
	p.poll()
	assert.Equal(t, 0, q.PendingCount(), "unchanged content")
}

func TestClipboard_Truncates(t *testing.T) {
	long := strings.Repeat("x", clipboardMaxLen+500)
	withClipboard(t, func() (string, error) { return long, nil })

	q := newQueue()
	p := NewClipboardPoller(q, time.Hour, nil)
	p.poll()

	items := drainAll(q)
	require.Len(t, items, 1)
	assert.Len(t, items[0].Text, clipboardMaxLen)
}

func TestClipboard_UnavailableDisables(t *testing.T) {
	withClipboard(t, func() (string, error) { return "", errors.New("no display") })

	q := newQueue()
	p := NewClipboardPoller(q, time.Millisecond, nil)

	done := make(chan struct{})
	go func() { defer close(done); p.Run(context.Background()) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not disable itself")
	}
}

// --- terminal buffer ---

func TestTerminalBuffer_FlushOnIdle(t *testing.T) {
	q := newQueue()
	b := NewTerminalBuffer(q, nil)

	b.Add("", Command{Command: "git status"})
	b.Add("", Command{Command: "git diff", ExitCode: 1, Duration: 2})
	assert.Equal(t, 0, q.PendingCount(), "no flush before idle window")

	b.FlushAll()
	items := drainAll(q)
	require.Len(t, items, 1)
	assert.Equal(t, "git status; git diff (exit 1)", items[0].Text)
	assert.Equal(t, ingest.SourceTerminal, items[0].Source)
	assert.Equal(t, "git status", items[0].Command())
}

func TestTerminalBuffer_FlushAtCap(t *testing.T) {
	q := newQueue()
	b := NewTerminalBuffer(q, nil)

	for i := 0; i < terminalMaxCommands; i++ {
		b.Add("sess", Command{Command: "echo hi"})
	}

	items := drainAll(q)
	require.Len(t, items, 1)
	assert.Equal(t, terminalMaxCommands, strings.Count(items[0].Text, "echo hi"))
}

func TestTerminalBuffer_SessionsIndependent(t *testing.T) {
	q := newQueue()
	b := NewTerminalBuffer(q, nil)

	b.Add("a", Command{Command: "make build"})
	b.Add("b", Command{Command: "make test"})
	b.FlushAll()

	items := drainAll(q)
	require.Len(t, items, 2)
	texts := []string{items[0].Text, items[1].Text}
	assert.ElementsMatch(t, []string{"make build", "make test"}, texts)
}

func TestTerminalBuffer_EmptyCommandIgnored(t *testing.T) {
	q := newQueue()
	b := NewTerminalBuffer(q, nil)

	b.Add("", Command{Command: "   "})
	b.FlushAll()
	assert.Equal(t, 0, q.PendingCount())
}

func TestTerminalBuffer_IdleTimer(t *testing.T) {
	q := newQueue()
	b := NewTerminalBuffer(q, nil)

	b.Add("", Command{Command: "sleep then flush"})

	b.mu.Lock()
	s := b.sessions["default"]
	require.NotNil(t, s)
	s.timer.Reset(10 * time.Millisecond)
	b.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for q.PendingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	items := drainAll(q)
	require.Len(t, items, 1)
	assert.Equal(t, "sleep then flush", items[0].Text)
}

// --- browser URL filter ---

func TestSkipURL(t *testing.T) {
	skipped := []string{
		"",
		"chrome://settings",
		"chrome-extension://abcdef/popup.html",
		"about:blank",
		"data:text/html,hello",
		"blob:https://example.com/uuid",
		"file:///etc/passwd",
		"CHROME://upper-case",
	}
	for _, url := range skipped {
		assert.True(t, skipURL(url), "should skip %q", url)
	}

	kept := []string{
		"https://go.dev/doc",
		"http://localhost:8080",
	}
	for _, url := range kept {
		assert.False(t, skipURL(url), "should keep %q", url)
	}
}

func TestBrowserPoller_MissingDatabases(t *testing.T) {
	q := newQueue()
	dir := t.TempDir()
	p := newBrowserPoller(q, time.Minute, nil,
		filepath.Join(dir, "no-chrome"), filepath.Join(dir, "no-safari"))

	for _, src := range p.sources {
		p.pollSource(src)
	}
	assert.Equal(t, 0, q.PendingCount())
}

// --- file watcher filters ---

func TestShouldIgnore(t *testing.T) {
	w := NewFileWatcher(newQueue(), nil, nil)

	ignored := []string{
		"/home/u/project/.git/config",
		"/home/u/project/node_modules/pkg/index.js",
		"/home/u/Documents/.DS_Store",
		"/home/u/Downloads/photo.JPG",
		"/home/u/Downloads/installer.dmg",
		"/home/u/Downloads/movie.part",
	}
	for _, path := range ignored {
		assert.True(t, w.shouldIgnore(path), "should ignore %q", path)
	}

	kept := []string{
		"/home/u/Documents/notes.md",
		"/home/u/Desktop/todo.txt",
		"/home/u/Downloads/main.go",
	}
	for _, path := range kept {
		assert.False(t, w.shouldIgnore(path), "should keep %q", path)
	}
}

func TestExtractPreview(t *testing.T) {
	dir := t.TempDir()

	textFile := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("  hello preview\nworld  "), 0o644))
	assert.Equal(t, "hello preview\nworld", extractPreview(textFile))

	long := strings.Repeat("a", previewChars*3)
	longFile := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(longFile, []byte(long), 0o644))
	assert.Len(t, extractPreview(longFile), previewChars)

	binFile := filepath.Join(dir, "bin.dat")
	require.NoError(t, os.WriteFile(binFile, []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))
	assert.Equal(t, "", extractPreview(binFile))

	assert.Equal(t, "", extractPreview(filepath.Join(dir, "missing.txt")))
}

func TestFileWatcher_EmitsAfterDebounce(t *testing.T) {
	dir := t.TempDir()
	q := newQueue()
	w := NewFileWatcher(q, []string{dir}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond) // let the watch get registered

	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.md"), []byte("some draft text"), 0o644))

	deadline := time.Now().Add(3 * time.Second)
	for q.PendingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	<-done

	items := drainAll(q)
	require.NotEmpty(t, items)
	item := items[0]
	assert.Equal(t, ingest.SourceFile, item.Source)
	assert.Contains(t, item.Text, "draft.md")
	assert.Contains(t, item.Text, "some draft text")
	assert.Equal(t, filepath.Join(dir, "draft.md"), item.Path())
}

// --- keystroke tap ---

type fakeKeySource struct {
	ch  chan KeyEvent
	err error
}

func (f *fakeKeySource) Events(ctx context.Context) (<-chan KeyEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func typeString(ch chan KeyEvent, s string, app string) {
	for _, r := range s {
		ch <- KeyEvent{Rune: r, App: app}
	}
}

func TestKeystrokeTap_FlushOnSourceClose(t *testing.T) {
	q := newQueue()
	src := &fakeKeySource{ch: make(chan KeyEvent)}
	tap := NewKeystrokeTap(q, src, nil, nil)

	done := make(chan struct{})
	go func() { defer close(done); tap.Run(context.Background()) }()

	typeString(src.ch, "hello typed text", "")
	close(src.ch)
	<-done

	items := drainAll(q)
	require.Len(t, items, 1)
	assert.Equal(t, "hello typed text", items[0].Text)
	assert.Equal(t, ingest.SourceInputMethod, items[0].Source)
}

func TestKeystrokeTap_ShortBufferDiscarded(t *testing.T) {
	q := newQueue()
	src := &fakeKeySource{ch: make(chan KeyEvent)}
	tap := NewKeystrokeTap(q, src, nil, nil)

	done := make(chan struct{})
	go func() { defer close(done); tap.Run(context.Background()) }()

	typeString(src.ch, "short", "")
	close(src.ch)
	<-done

	assert.Equal(t, 0, q.PendingCount())
}

func TestKeystrokeTap_DedicatedAppSuppressed(t *testing.T) {
	q := newQueue()
	src := &fakeKeySource{ch: make(chan KeyEvent)}
	tap := NewKeystrokeTap(q, src, []string{"com.apple.Terminal"}, nil)

	done := make(chan struct{})
	go func() { defer close(done); tap.Run(context.Background()) }()

	typeString(src.ch, "secret terminal input", "com.apple.terminal")
	typeString(src.ch, "normal editor input", "com.example.editor")
	close(src.ch)
	<-done

	items := drainAll(q)
	require.Len(t, items, 1)
	assert.Equal(t, "normal editor input", items[0].Text)
}

func TestKeystrokeTap_SecureFieldSuppressed(t *testing.T) {
	q := newQueue()
	src := &fakeKeySource{ch: make(chan KeyEvent)}
	tap := NewKeystrokeTap(q, src, nil, nil)

	done := make(chan struct{})
	go func() { defer close(done); tap.Run(context.Background()) }()

	for _, r := range "password value here" {
		src.ch <- KeyEvent{Rune: r, Secure: true}
	}
	close(src.ch)
	<-done

	assert.Equal(t, 0, q.PendingCount())
}

func TestKeystrokeTap_SourceDenied(t *testing.T) {
	q := newQueue()
	src := &fakeKeySource{err: errors.New("accessibility permission denied")}
	tap := NewKeystrokeTap(q, src, nil, nil)

	done := make(chan struct{})
	go func() { defer close(done); tap.Run(context.Background()) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tap did not degrade on denied source")
	}
}
