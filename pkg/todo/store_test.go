// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package todo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AustinWp/soul-agent/pkg/vault"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	v, err := vault.New(t.TempDir())
	require.NoError(t, err)
	return New(v, nil)
}

func TestCreate_WritesTaskFile(t *testing.T) {
	s := newTestStore(t)
	s.nowFn = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local) }

	id, err := s.Create("write the report", "P2", false)
	require.NoError(t, err)
	assert.Len(t, id, 8)

	items, err := s.List(StatusActive)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, id, item.ID)
	assert.Equal(t, "write the report", item.Text)
	assert.Equal(t, "P2", item.Priority)
	assert.Equal(t, StatusActive, item.Status)
	assert.Equal(t, "2026-03-14", item.Created)
	assert.False(t, item.AutoDetected)
	assert.Equal(t, "task-"+id+".md", item.File)
}

func TestCreate_IDDerivation(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	id1 := NewID("same text", ts)
	id2 := NewID("same text", ts)
	id3 := NewID("same text", ts.Add(time.Second))
	id4 := NewID("other text", ts)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.NotEqual(t, id1, id4)
}

func TestCreate_EmptyText(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("   ", "P2", false)
	assert.Error(t, err)
}

func TestCreate_AutoDetected(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create("detected task", "P2", true)
	require.NoError(t, err)

	item, err := s.Get(id)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.AutoDetected)
}

func TestList_SortPriorityThenCreated(t *testing.T) {
	s := newTestStore(t)

	day := func(d int) func() time.Time {
		return func() time.Time { return time.Date(2026, 3, d, 9, 0, 0, 0, time.Local) }
	}
	s.nowFn = day(10)
	_, err := s.Create("old P2", "P2", false)
	require.NoError(t, err)
	s.nowFn = day(12)
	_, err = s.Create("new P2", "P2", false)
	require.NoError(t, err)
	s.nowFn = day(11)
	_, err = s.Create("the P1", "P1", false)
	require.NoError(t, err)

	items, err := s.List(StatusActive)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "the P1", items[0].Text)
	assert.Equal(t, "new P2", items[1].Text)
	assert.Equal(t, "old P2", items[2].Text)
}

func TestList_UnknownStatus(t *testing.T) {
	s := newTestStore(t)
	_, err := s.List("bogus")
	assert.Error(t, err)
}

func TestRecordActivity(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create("tracked task", "P2", false)
	require.NoError(t, err)

	date := time.Date(2026, 3, 14, 15, 0, 0, 0, time.Local)
	found, err := s.RecordActivity(id, "terminal", date)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.RecordActivity(id, "browser", date)
	require.NoError(t, err)
	assert.True(t, found)

	item, err := s.Get(id)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "2026-03-14", item.LastActivity)
	require.Len(t, item.Activity, 1)
	assert.Equal(t, 2, item.Activity[0].Count)
	assert.ElementsMatch(t, []string{"terminal", "browser"}, item.Activity[0].Sources)
}

func TestRecordActivity_LongIDPrefix(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create("prefix matched", "P2", false)
	require.NoError(t, err)

	found, err := s.RecordActivity(id+"extportion", "note", time.Now())
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRecordActivity_NotFound(t *testing.T) {
	s := newTestStore(t)
	found, err := s.RecordActivity("deadbeef", "note", time.Now())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestComplete(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create("finishable", "P2", false)
	require.NoError(t, err)

	found, err := s.Complete(id)
	require.NoError(t, err)
	assert.True(t, found)

	active, err := s.List(StatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	done, err := s.List(StatusDone)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, StatusDone, done[0].Status)
	assert.Equal(t, id, done[0].ID)
}

func TestComplete_NotFound(t *testing.T) {
	s := newTestStore(t)
	found, err := s.Complete("deadbeef")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_IDLength(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create("lookup target", "P2", false)
	require.NoError(t, err)

	// exact 8-char id matches
	item, err := s.Get(id)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, id, item.ID)

	// longer input is truncated to the first 8 chars
	item, err = s.Get(id + "ffff")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, id, item.ID)

	// a shorter prefix never matches
	item, err = s.Get(id[:4])
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create("abandoned task", "P3", false)
	require.NoError(t, err)

	found, err := s.Remove(id)
	require.NoError(t, err)
	assert.True(t, found)

	all, err := s.List(StatusAll)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemove_NotFound(t *testing.T) {
	s := newTestStore(t)
	found, err := s.Remove("deadbeef")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStalled(t *testing.T) {
	s := newTestStore(t)
	today := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	s.nowFn = func() time.Time { return today.AddDate(0, 0, -5) }
	staleID, err := s.Create("stale task", "P2", false)
	require.NoError(t, err)

	s.nowFn = func() time.Time { return today }
	freshID, err := s.Create("fresh task", "P2", false)
	require.NoError(t, err)

	stalled, err := s.Stalled(DefaultStaleDays)
	require.NoError(t, err)
	require.Len(t, stalled, 1)
	assert.Equal(t, staleID, stalled[0].ID)

	// activity today rescues the stale one
	found, err := s.RecordActivity(staleID, "note", today)
	require.NoError(t, err)
	require.True(t, found)

	stalled, err = s.Stalled(DefaultStaleDays)
	require.NoError(t, err)
	assert.Empty(t, stalled)

	_ = freshID
}

func TestActiveSummaries(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create("summarized", "P2", false)
	require.NoError(t, err)

	done, err := s.Create("finished", "P2", false)
	require.NoError(t, err)
	_, err = s.Complete(done)
	require.NoError(t, err)

	summaries := s.ActiveSummaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].ID)
	assert.Equal(t, "summarized", summaries[0].Text)
}

func TestDoneOn(t *testing.T) {
	s := newTestStore(t)
	today := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	s.nowFn = func() time.Time { return today }

	id, err := s.Create("done today", "P2", false)
	require.NoError(t, err)
	_, err = s.Complete(id)
	require.NoError(t, err)

	items, err := s.DoneOn(today)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)

	items, err = s.DoneOn(today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, items)
}
