// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package dailylog

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AustinWp/soul-agent/pkg/vault"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	store, err := vault.New(t.TempDir())
	require.NoError(t, err)
	return New(store, nil)
}

func ts(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.Local)
}

func TestAppend_CreatesFileWithFrontmatter(t *testing.T) {
	l := newTestLog(t)

	err := l.Append("git status", "terminal", ts(9, 26), "coding", []string{"git"}, 4)
	require.NoError(t, err)

	content, err := l.store.Read("logs", "2026-03-14.md")
	require.NoError(t, err)
	require.NotNil(t, content)

	fields, body := vault.Parse(content)
	assert.Equal(t, "P2", fields["priority"])
	assert.Equal(t, "2026-03-14", fields["date"])
	assert.Equal(t, "coding", fields["category"])
	assert.Contains(t, body, "[09:26] (terminal) [coding] git status\n")
}

func TestAppend_NoCategoryOmitsBracket(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append("quick note", "note", ts(10, 0), "", nil, 0))

	content, err := l.store.Read("logs", "2026-03-14.md")
	require.NoError(t, err)
	fields, body := vault.Parse(content)
	assert.Contains(t, body, "[10:00] (note) quick note\n")
	assert.NotContains(t, body, "[]")
	_, hasCategory := fields["category"]
	assert.False(t, hasCategory)
}

func TestAppend_FlattensNewlines(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append("line one\nline two\n\nline three", "clipboard", ts(11, 5), "work", nil, 3))

	body, err := l.ReadDay(ts(11, 5))
	require.NoError(t, err)
	assert.Contains(t, body, "line one line two line three")
	assert.Equal(t, 1, strings.Count(body, "line one"))
}

func TestAppend_PreservesOrder(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append("first", "note", ts(9, 0), "work", nil, 3))
	require.NoError(t, l.Append("second", "note", ts(9, 1), "work", nil, 3))
	require.NoError(t, l.Append("third", "note", ts(9, 2), "work", nil, 3))

	entries, err := l.Entries(ts(9, 0))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Text)
	assert.Equal(t, "second", entries[1].Text)
	assert.Equal(t, "third", entries[2].Text)
}

func TestEntries_ParsesFields(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append("git push origin main", "terminal", ts(14, 30), "coding", nil, 3))
	require.NoError(t, l.Append("lunch break", "note", ts(12, 15), "", nil, 0))

	entries, err := l.Entries(ts(0, 0))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "14:30", entries[0].Time)
	assert.Equal(t, "terminal", entries[0].Source)
	assert.Equal(t, "coding", entries[0].Category)
	assert.Equal(t, "git push origin main", entries[0].Text)

	assert.Equal(t, "note", entries[1].Source)
	assert.Empty(t, entries[1].Category)
	assert.Equal(t, "lunch break", entries[1].Text)
}

func TestEntries_MissingDay(t *testing.T) {
	l := newTestLog(t)
	entries, err := l.Entries(ts(0, 0))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadDay_CacheInvalidatedByAppend(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append("first", "note", ts(9, 0), "work", nil, 3))
	body, err := l.ReadDay(ts(9, 0))
	require.NoError(t, err)
	assert.Contains(t, body, "first")

	require.NoError(t, l.Append("second", "note", ts(9, 5), "work", nil, 3))
	body, err = l.ReadDay(ts(9, 5))
	require.NoError(t, err)
	assert.Contains(t, body, "second")
}

func TestReadDay_CacheBound(t *testing.T) {
	l := newTestLog(t)

	for i := 0; i < 5; i++ {
		day := time.Date(2026, 3, 10+i, 9, 0, 0, 0, time.Local)
		require.NoError(t, l.Append("entry", "note", day, "work", nil, 3))
		_, err := l.ReadDay(day)
		require.NoError(t, err)
	}

	l.mu.Lock()
	size := len(l.cache)
	l.mu.Unlock()
	assert.LessOrEqual(t, size, cacheDays)
}

func TestAppend_DistinctDays(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append("yesterday", "note", time.Date(2026, 3, 13, 23, 59, 0, 0, time.Local), "work", nil, 3))
	require.NoError(t, l.Append("today", "note", ts(0, 1), "work", nil, 3))

	names, err := l.store.List("logs")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-13.md", "2026-03-14.md"}, names)
}

func TestAppend_ConcurrentSameDay(t *testing.T) {
	l := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = l.Append("concurrent entry", "note", ts(9, n), "work", nil, 3)
		}(i)
	}
	wg.Wait()

	entries, err := l.Entries(ts(0, 0))
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestDates(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append("a", "note", time.Date(2026, 3, 12, 9, 0, 0, 0, time.Local), "work", nil, 3))
	require.NoError(t, l.Append("b", "note", time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), "work", nil, 3))

	dates, err := l.Dates()
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Before(dates[1]))
}
