// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package todo manages long-lived task files under todos/active/ and
// todos/done/, including the activity log that feeds stall detection.
package todo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AustinWp/soul-agent/pkg/vault"
)

const (
	activeDir = "todos/active"
	doneDir   = "todos/done"

	// DefaultStaleDays is the stall window: an active task with no
	// activity for this many days counts as stalled.
	DefaultStaleDays = 3
)

// Status filters for List.
const (
	StatusActive = "active"
	StatusDone   = "done"
	StatusAll    = "all"
)

// Item is one to-do loaded from the vault.
type Item struct {
	ID           string                `json:"id"`
	Text         string                `json:"text"`
	Priority     string                `json:"priority"`
	Status       string                `json:"status"`
	Created      string                `json:"created"` // YYYY-MM-DD
	LastActivity string                `json:"last_activity,omitempty"`
	AutoDetected bool                  `json:"auto_detected,omitempty"`
	Activity     []vault.ActivityEntry `json:"activity,omitempty"`
	File         string                `json:"-"`
}

// Summary is the compact {id, text} view handed to the classifier.
type Summary struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Store reads and writes task files. Mutating operations on the same
// store are serialized; the vault handles file-level atomicity.
type Store struct {
	store  *vault.Store
	logger *slog.Logger

	mu    sync.Mutex
	nowFn func() time.Time
}

// New creates a Store over the given vault.
func New(store *vault.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		store:  store,
		logger: logger,
		nowFn:  time.Now,
	}
}

// NewID derives the 8-hex-char task id from the text and creation time.
func NewID(text string, ts time.Time) string {
	sum := sha256.Sum256([]byte(text + ts.Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])[:8]
}

// Create writes a new active task and returns its id.
func (s *Store) Create(text, priority string, autoDetected bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("todo text is empty")
	}
	if priority == "" {
		priority = "P2"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	id := NewID(text, now)

	fields := map[string]string{
		"id":     id,
		"type":   "todo",
		"status": StatusActive,
	}
	if autoDetected {
		fields["auto_detected"] = "true"
	}
	vault.AddLifecycle(fields, priority, now)

	name := "task-" + id + ".md"
	if err := s.store.Write(activeDir, name, vault.Build(fields, text)); err != nil {
		return "", fmt.Errorf("create todo: %w", err)
	}

	s.logger.Info("todo.create", "id", id, "priority", priority, "auto_detected", autoDetected)
	return id, nil
}

// List returns tasks filtered by status ("active", "done", "all"),
// sorted by priority ascending then creation date descending.
func (s *Store) List(status string) ([]*Item, error) {
	var dirs []string
	switch status {
	case StatusActive:
		dirs = []string{activeDir}
	case StatusDone:
		dirs = []string{doneDir}
	case StatusAll, "":
		dirs = []string{activeDir, doneDir}
	default:
		return nil, fmt.Errorf("unknown todo status filter: %s", status)
	}

	var items []*Item
	for _, dir := range dirs {
		names, err := s.store.List(dir)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			item, err := s.load(dir, name)
			if err != nil || item == nil {
				continue
			}
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].Created > items[j].Created
	})
	return items, nil
}

// ActiveSummaries returns the compact {id, text} records for every
// active task, for embedding into the classifier prompt.
func (s *Store) ActiveSummaries() []Summary {
	items, err := s.List(StatusActive)
	if err != nil {
		s.logger.Warn("todo.summaries.failed", "error", err)
		return nil
	}
	summaries := make([]Summary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, Summary{ID: item.ID, Text: item.Text})
	}
	return summaries
}

// Get returns the active or done task matching the 8-char id, or nil.
// Input longer than 8 chars is truncated; shorter input never matches.
func (s *Store) Get(id string) (*Item, error) {
	for _, dir := range []string{activeDir, doneDir} {
		item, err := s.find(dir, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}
	return nil, nil
}

// RecordActivity appends today's activity from source onto the active
// task matching id. Returns whether a task was found.
func (s *Store) RecordActivity(id, source string, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.find(activeDir, id)
	if err != nil || item == nil {
		return false, err
	}

	content, err := s.store.Read(activeDir, item.File)
	if err != nil || content == nil {
		return false, err
	}
	fields, body := vault.Parse(content)
	vault.AddActivityEntry(fields, date.Format("2006-01-02"), source)

	if err := s.store.Write(activeDir, item.File, vault.Build(fields, body)); err != nil {
		return false, fmt.Errorf("record activity: %w", err)
	}

	s.logger.Debug("todo.activity", "id", item.ID, "source", source)
	return true, nil
}

// Complete moves the matching active task to done/ and marks it done.
// Returns whether a task was found.
func (s *Store) Complete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.find(activeDir, id)
	if err != nil || item == nil {
		return false, err
	}

	content, err := s.store.Read(activeDir, item.File)
	if err != nil || content == nil {
		return false, err
	}
	fields, body := vault.Parse(content)
	fields["status"] = StatusDone

	if err := s.store.Write(doneDir, item.File, vault.Build(fields, body)); err != nil {
		return false, fmt.Errorf("complete todo: %w", err)
	}
	if _, err := s.store.Delete(activeDir, item.File); err != nil {
		return false, fmt.Errorf("complete todo: %w", err)
	}

	s.logger.Info("todo.complete", "id", item.ID)
	return true, nil
}

// Remove deletes the matching active task outright, without moving it
// to done/. Returns whether a task was found.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.find(activeDir, id)
	if err != nil || item == nil {
		return false, err
	}

	if _, err := s.store.Delete(activeDir, item.File); err != nil {
		return false, fmt.Errorf("remove todo: %w", err)
	}

	s.logger.Info("todo.remove", "id", item.ID)
	return true, nil
}

// Stalled returns active tasks whose last activity (or creation, when
// never touched) is at least staleDays in the past.
func (s *Store) Stalled(staleDays int) ([]*Item, error) {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	cutoff := s.nowFn().AddDate(0, 0, -staleDays).Format("2006-01-02")

	items, err := s.List(StatusActive)
	if err != nil {
		return nil, err
	}

	var stalled []*Item
	for _, item := range items {
		last := item.LastActivity
		if last == "" {
			last = item.Created
		}
		if last != "" && last <= cutoff {
			stalled = append(stalled, item)
		}
	}
	return stalled, nil
}

// DoneOn returns tasks completed with activity on the given date.
func (s *Store) DoneOn(date time.Time) ([]*Item, error) {
	items, err := s.List(StatusDone)
	if err != nil {
		return nil, err
	}
	day := date.Format("2006-01-02")
	var out []*Item
	for _, item := range items {
		if item.LastActivity == day || item.Created == day {
			out = append(out, item)
		}
	}
	return out, nil
}

// find scans dir for the task matching id. Ids are exactly 8 hex
// chars; longer input is truncated to 8, shorter input never matches.
func (s *Store) find(dir, id string) (*Item, error) {
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return nil, nil
	}

	names, err := s.store.List(dir)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		item, err := s.load(dir, name)
		if err != nil || item == nil {
			continue
		}
		if len(item.ID) >= 8 && item.ID[:8] == id {
			return item, nil
		}
	}
	return nil, nil
}

func (s *Store) load(dir, name string) (*Item, error) {
	content, err := s.store.Read(dir, name)
	if err != nil || content == nil {
		return nil, err
	}
	fields, body := vault.Parse(content)

	id := fields["id"]
	if id == "" {
		id = strings.TrimSuffix(strings.TrimPrefix(name, "task-"), ".md")
	}

	item := &Item{
		ID:           id,
		Text:         strings.TrimSpace(body),
		Priority:     fields["priority"],
		Status:       fields["status"],
		Created:      fields["created"],
		LastActivity: fields["last_activity"],
		AutoDetected: fields["auto_detected"] == "true",
		Activity:     vault.ParseActivityLog(fields["activity_log"]),
		File:         name,
	}
	if item.Status == "" {
		if dir == doneDir {
			item.Status = StatusDone
		} else {
			item.Status = StatusActive
		}
	}
	return item, nil
}
