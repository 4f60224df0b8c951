// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/llm"
	"github.com/AustinWp/soul-agent/pkg/todo"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

var testDay = time.Date(2026, 3, 14, 21, 0, 0, 0, time.Local)

type fixture struct {
	engine *Engine
	log    *dailylog.Log
	todos  *todo.Store
	store  *vault.Store
}

func newFixture(t *testing.T, provider llm.Provider) *fixture {
	t.Helper()
	store, err := vault.New(t.TempDir())
	require.NoError(t, err)
	log := dailylog.New(store, nil)
	todos := todo.New(store, nil)
	return &fixture{
		engine: New(log, todos, store, provider, nil),
		log:    log,
		todos:  todos,
		store:  store,
	}
}

func (f *fixture) seedDay(t *testing.T) {
	t.Helper()
	seed := []struct {
		text, source, category string
		hour                   int
	}{
		{"git push origin main", "terminal", "coding", 9},
		{"refactor queue drain", "claude-code", "coding", 10},
		{"fix flaky test", "terminal", "coding", 11},
		{"review design doc", "note", "work", 14},
		{"golang blog post — https://go.dev", "browser", "browsing", 16},
	}
	for _, s := range seed {
		ts := time.Date(2026, 3, 14, s.hour, 0, 0, 0, time.Local)
		require.NoError(t, f.log.Append(s.text, s.source, ts, s.category, nil, 3))
	}
}

func TestAllocation(t *testing.T) {
	entries := []dailylog.Entry{
		{Category: "coding", Text: "a"},
		{Category: "coding", Text: "b"},
		{Category: "coding", Text: "c"},
		{Category: "work", Text: "d"},
		{Category: "", Text: "e"},
	}

	stats := Allocation(entries)
	require.Len(t, stats, 3)

	assert.Equal(t, "coding", stats[0].Category)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, 60, stats[0].Percent)
	assert.Equal(t, []string{"a", "b", "c"}, stats[0].Representatives)

	total := 0
	for _, s := range stats {
		total += s.Percent
	}
	assert.InDelta(t, 100, total, 2)

	assert.Nil(t, Allocation(nil))
}

func TestAllocation_CapsRepresentatives(t *testing.T) {
	var entries []dailylog.Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, dailylog.Entry{Category: "coding", Text: "entry"})
	}
	stats := Allocation(entries)
	require.Len(t, stats, 1)
	assert.Len(t, stats[0].Representatives, maxRepresentatives)
}

func TestReport_NoData(t *testing.T) {
	f := newFixture(t, nil)
	report, err := f.engine.Report(context.Background(), testDay)
	require.NoError(t, err)
	assert.Contains(t, report, NoData)
	assert.Contains(t, report, "2026-03-14")
}

func TestReport_SectionOrder(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: "- finish the queue refactor first"}, nil
		},
	})
	f.seedDay(t)
	_, err := f.todos.Create("ship the release", "P2", false)
	require.NoError(t, err)

	report, err := f.engine.Report(context.Background(), testDay)
	require.NoError(t, err)

	sections := []string{"## Time Allocation", "## Task Tracking", "## Core Topics", "## Work Advice"}
	last := -1
	for _, section := range sections {
		idx := strings.Index(report, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}

	assert.Contains(t, report, "**coding**: 3 entries (60%)")
	assert.Contains(t, report, "ship the release")
	assert.Contains(t, report, "finish the queue refactor first")
}

func TestReport_AdviceOmittedOnLLMFailure(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, errors.New("llm down")
		},
	})
	f.seedDay(t)

	report, err := f.engine.Report(context.Background(), testDay)
	require.NoError(t, err)
	assert.NotContains(t, report, "## Work Advice")
	assert.Contains(t, report, "## Core Topics")
}

func TestReport_StalledSection(t *testing.T) {
	f := newFixture(t, nil)
	f.seedDay(t)

	// created five days ago, never touched
	fields := map[string]string{
		"id":       "aaaaaaaa",
		"type":     "todo",
		"status":   "active",
		"priority": "P2",
		"created":  testDay.AddDate(0, 0, -5).Format("2006-01-02"),
	}
	err := f.store.Write("todos/active", "task-aaaaaaaa.md", vault.Build(fields, "forgotten task"))
	require.NoError(t, err)

	report, err := f.engine.Report(context.Background(), testDay)
	require.NoError(t, err)
	assert.Contains(t, report, "**Stalled** (1)")
	assert.Contains(t, report, "forgotten task")
}

func TestGenerate_PersistsWithLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	f.seedDay(t)

	report, err := f.engine.Generate(context.Background(), testDay)
	require.NoError(t, err)
	assert.Contains(t, report, "## Time Allocation")

	content, err := f.store.Read("insights", "daily-2026-03-14.md")
	require.NoError(t, err)
	require.NotNil(t, content)

	fields, body := vault.Parse(content)
	assert.Equal(t, "insight", fields["type"])
	assert.Equal(t, "P2", fields["priority"])
	assert.Equal(t, "2026-03-14", fields["date"])
	assert.NotEmpty(t, fields["expires"])
	assert.Contains(t, body, "## Time Allocation")

	loaded, err := f.engine.Load(testDay)
	require.NoError(t, err)
	assert.Contains(t, loaded, "## Time Allocation")
}

func TestRecall_Today(t *testing.T) {
	f := newFixture(t, nil)
	f.seedDay(t)

	view, err := f.engine.Recall(PeriodToday, testDay)
	require.NoError(t, err)
	assert.Equal(t, PeriodToday, view.Period)
	assert.Equal(t, "2026-03-14", view.From)
	require.Len(t, view.Days, 1)
	assert.Len(t, view.Days[0].Entries, 5)
}

func TestRecall_WeekStartsMonday(t *testing.T) {
	f := newFixture(t, nil)
	// 2026-03-14 is a Saturday; Monday is 03-09
	require.NoError(t, f.log.Append("monday work", "note",
		time.Date(2026, 3, 9, 10, 0, 0, 0, time.Local), "work", nil, 3))
	require.NoError(t, f.log.Append("sunday before", "note",
		time.Date(2026, 3, 8, 10, 0, 0, 0, time.Local), "work", nil, 3))
	f.seedDay(t)

	view, err := f.engine.Recall(PeriodWeek, testDay)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", view.From)
	require.Len(t, view.Days, 2)
	assert.Equal(t, "2026-03-09", view.Days[0].Date)
	assert.Equal(t, "2026-03-14", view.Days[1].Date)
}

func TestRecall_Month(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.log.Append("early month", "note",
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local), "work", nil, 3))
	f.seedDay(t)

	view, err := f.engine.Recall(PeriodMonth, testDay)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", view.From)
	assert.Len(t, view.Days, 2)
}

func TestRecall_UnknownPeriod(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Recall("decade", testDay)
	assert.Error(t, err)
}
