// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/AustinWp/soul-agent/pkg/ingest"
)

const (
	// terminalIdleFlush emits a session's buffer after this much quiet.
	terminalIdleFlush = 5 * time.Second

	// terminalMaxCommands flushes a session once it buffers this many.
	terminalMaxCommands = 10
)

// Command is one shell command reported by the terminal hook.
type Command struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Duration int    `json:"duration"` // seconds
}

// TerminalBuffer groups commands per shell session and flushes each
// group as a single terminal item. Sessions without a token share the
// "default" bucket.
type TerminalBuffer struct {
	queue  *ingest.Queue
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*terminalSession
	nowFn    func() time.Time
}

type terminalSession struct {
	commands []Command
	timer    *time.Timer
}

// NewTerminalBuffer creates a buffer feeding the queue.
func NewTerminalBuffer(queue *ingest.Queue, logger *slog.Logger) *TerminalBuffer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TerminalBuffer{
		queue:    queue,
		logger:   logger,
		sessions: make(map[string]*terminalSession),
		nowFn:    time.Now,
	}
}

// Add buffers one command for a session, flushing when the session
// reaches the command cap.
func (b *TerminalBuffer) Add(session string, cmd Command) {
	if strings.TrimSpace(cmd.Command) == "" {
		return
	}
	if session == "" {
		session = "default"
	}

	b.mu.Lock()
	s, ok := b.sessions[session]
	if !ok {
		s = &terminalSession{}
		b.sessions[session] = s
	}
	s.commands = append(s.commands, cmd)

	if len(s.commands) >= terminalMaxCommands {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(b.sessions, session)
		b.mu.Unlock()
		b.emit(s.commands)
		return
	}

	if s.timer == nil {
		s.timer = time.AfterFunc(terminalIdleFlush, func() { b.flushSession(session) })
	} else {
		s.timer.Reset(terminalIdleFlush)
	}
	b.mu.Unlock()
}

// FlushAll drains every session immediately, for shutdown.
func (b *TerminalBuffer) FlushAll() {
	b.mu.Lock()
	pending := make([][]Command, 0, len(b.sessions))
	for session, s := range b.sessions {
		if s.timer != nil {
			s.timer.Stop()
		}
		pending = append(pending, s.commands)
		delete(b.sessions, session)
	}
	b.mu.Unlock()

	for _, commands := range pending {
		b.emit(commands)
	}
}

func (b *TerminalBuffer) flushSession(session string) {
	b.mu.Lock()
	s, ok := b.sessions[session]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.sessions, session)
	b.mu.Unlock()

	b.emit(s.commands)
}

// emit turns one session's commands into a single terminal item with a
// concatenated summary.
func (b *TerminalBuffer) emit(commands []Command) {
	if len(commands) == 0 {
		return
	}

	var sb strings.Builder
	failed := 0
	totalDuration := 0
	for i, cmd := range commands {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(cmd.Command)
		if cmd.ExitCode != 0 {
			failed++
			fmt.Fprintf(&sb, " (exit %d)", cmd.ExitCode)
		}
		totalDuration += cmd.Duration
	}

	item := ingest.NewTerminalItem(sb.String(), commands[0].Command, commands[len(commands)-1].ExitCode, totalDuration, b.nowFn())
	b.queue.Put(item)
	b.logger.Debug("capture.terminal.flush", "commands", len(commands), "failed", failed)
}
