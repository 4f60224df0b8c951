// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package dailylog appends classified activity to per-day Markdown
// files under logs/ and parses them back for the insight engine.
package dailylog

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AustinWp/soul-agent/pkg/vault"
)

const logsDir = "logs"

// cacheDays bounds the in-memory body cache to the most recent days read.
const cacheDays = 3

// entryPattern matches one appended line: [HH:MM] (source) [category] text.
// The category bracket is absent when the item was never classified.
var entryPattern = regexp.MustCompile(`\[(\d{2}:\d{2})\]\s+\((\w[\w-]*)\)\s*(?:\[(\w+)\])?\s*(.*)`)

// Entry is one parsed daily-log line.
type Entry struct {
	Time     string `json:"time"` // HH:MM
	Source   string `json:"source"`
	Category string `json:"category,omitempty"`
	Text     string `json:"text"`
}

// Log appends and reads per-day activity files. Appends to the same
// day are serialized by a per-file lock; distinct days do not contend.
type Log struct {
	store  *vault.Store
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]string
}

// New creates a Log over the given vault.
func New(store *vault.Store, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		cache:  make(map[string]string),
	}
}

// FileName returns the logs/ filename for a date.
func FileName(date time.Time) string {
	return date.Format("2006-01-02") + ".md"
}

func (l *Log) fileLock(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[name]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[name] = lk
	}
	return lk
}

// Append adds one line to the day derived from ts in local time,
// creating the file with its frontmatter on first write. Embedded
// newlines in text are flattened to spaces.
func (l *Log) Append(text, source string, ts time.Time, category string, tags []string, importance int) error {
	name := FileName(ts)
	lk := l.fileLock(name)
	lk.Lock()
	defer lk.Unlock()

	content, err := l.store.Read(logsDir, name)
	if err != nil {
		return fmt.Errorf("read daily log: %w", err)
	}

	if content == nil {
		fields := map[string]string{
			"priority": "P2",
			"date":     ts.Format("2006-01-02"),
		}
		if category != "" {
			vault.AddClassification(fields, category, tags, importance)
		}
		content = vault.Build(fields, "")
	}

	flat := strings.Join(strings.Fields(strings.ReplaceAll(text, "\n", " ")), " ")
	var line string
	if category != "" {
		line = fmt.Sprintf("[%s] (%s) [%s] %s\n", ts.Format("15:04"), source, category, flat)
	} else {
		line = fmt.Sprintf("[%s] (%s) %s\n", ts.Format("15:04"), source, flat)
	}

	if !strings.HasSuffix(string(content), "\n") {
		content = append(content, '\n')
	}
	content = append(content, line...)

	if err := l.store.Write(logsDir, name, content); err != nil {
		return fmt.Errorf("append daily log: %w", err)
	}

	l.mu.Lock()
	delete(l.cache, name)
	l.mu.Unlock()

	l.logger.Debug("dailylog.append", "file", name, "source", source, "category", category)
	return nil
}

// ReadDay returns the raw body (frontmatter stripped) for a date, or
// "" when no log exists. Recent days are served from cache.
func (l *Log) ReadDay(date time.Time) (string, error) {
	name := FileName(date)

	l.mu.Lock()
	if body, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return body, nil
	}
	l.mu.Unlock()

	content, err := l.store.Read(logsDir, name)
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", nil
	}
	_, body := vault.Parse(content)

	l.mu.Lock()
	l.cache[name] = body
	if len(l.cache) > cacheDays {
		l.evictOldestLocked()
	}
	l.mu.Unlock()

	return body, nil
}

// evictOldestLocked drops the lexicographically smallest cached day,
// which for YYYY-MM-DD names is the oldest.
func (l *Log) evictOldestLocked() {
	oldest := ""
	for name := range l.cache {
		if oldest == "" || name < oldest {
			oldest = name
		}
	}
	delete(l.cache, oldest)
}

// Entries parses a day's log lines in file order. Lines that do not
// match the entry format are skipped.
func (l *Log) Entries(date time.Time) ([]Entry, error) {
	body, err := l.ReadDay(date)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(body, "\n") {
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, Entry{
			Time:     m[1],
			Source:   m[2],
			Category: m[3],
			Text:     strings.TrimSpace(m[4]),
		})
	}
	return entries, nil
}

// Dates lists the days that have a log file, oldest first.
func (l *Log) Dates() ([]time.Time, error) {
	names, err := l.store.List(logsDir)
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, name := range names {
		d, err := time.ParseInLocation("2006-01-02", strings.TrimSuffix(name, ".md"), time.Local)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}
