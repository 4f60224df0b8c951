// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AustinWp/soul-agent/pkg/classify"
	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/ingest"
	"github.com/AustinWp/soul-agent/pkg/llm"
	"github.com/AustinWp/soul-agent/pkg/todo"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	queue    *ingest.Queue
	consumer *Consumer
	vault    *vault.Store
	todos    *todo.Store
	dailyLog *dailylog.Log
}

func newFixture(t *testing.T, provider llm.Provider) *fixture {
	t.Helper()
	v, err := vault.New(t.TempDir())
	require.NoError(t, err)

	q := ingest.NewQueue(ingest.WithBatchSize(3), ingest.WithFlushInterval(50*time.Millisecond))
	dl := dailylog.New(v, nil)
	td := todo.New(v, nil)
	c := New(q, classify.New(provider), dl, v, td, nil)
	return &fixture{queue: q, consumer: c, vault: v, todos: td, dailyLog: dl}
}

func fallbackProvider() llm.Provider {
	return &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, errors.New("llm unavailable")
		},
	}
}

func runConsumer(t *testing.T, f *fixture) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.consumer.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestConsumer_FanOut(t *testing.T) {
	f := newFixture(t, fallbackProvider())
	runConsumer(t, f)

	ts := time.Now()
	require.True(t, f.queue.Put(ingest.NewItem("git status", ingest.SourceTerminal, ts)))
	require.True(t, f.queue.Put(ingest.NewItem("reading docs", ingest.SourceBrowser, ts)))

	waitFor(t, func() bool {
		entries, _ := f.dailyLog.Entries(ts)
		return len(entries) == 2
	})

	entries, err := f.dailyLog.Entries(ts)
	require.NoError(t, err)
	assert.Equal(t, "coding", entries[0].Category)
	assert.Equal(t, "browsing", entries[1].Category)

	// both items also landed in classified/
	names, err := f.vault.List("classified")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestConsumer_NewTaskAction(t *testing.T) {
	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: `[{"category": "work", "importance": 3, "summary": "report", "action_type": "new_task", "action_detail": "write the Q1 report"}]`}, nil
		},
	}
	f := newFixture(t, provider)
	runConsumer(t, f)

	require.True(t, f.queue.Put(ingest.NewItem("need to write the Q1 report", ingest.SourceNote, time.Now())))

	waitFor(t, func() bool {
		items, _ := f.todos.List(todo.StatusActive)
		return len(items) == 1
	})

	items, err := f.todos.List(todo.StatusActive)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "write the Q1 report", items[0].Text)
	assert.True(t, items[0].AutoDetected)
	assert.Equal(t, "P2", items[0].Priority)
}

func TestConsumer_TaskProgressAndDone(t *testing.T) {
	f := newFixture(t, fallbackProvider())

	id, err := f.todos.Create("existing task", "P2", false)
	require.NoError(t, err)

	progressThenDone := []string{
		`[{"category": "work", "importance": 3, "summary": "p", "action_type": "task_progress", "action_detail": "made progress", "related_todo_id": "` + id + `"}]`,
		`[{"category": "work", "importance": 3, "summary": "d", "action_type": "task_done", "action_detail": "finished", "related_todo_id": "` + id + `"}]`,
	}
	call := 0
	f.consumer.classifier = classify.New(&llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			reply := progressThenDone[call%len(progressThenDone)]
			call++
			return &llm.ChatResponse{Content: reply}, nil
		},
	})
	runConsumer(t, f)

	require.True(t, f.queue.Put(ingest.NewItem("working on it", ingest.SourceNote, time.Now())))
	waitFor(t, func() bool {
		item, _ := f.todos.Get(id)
		return item != nil && item.LastActivity != ""
	})

	require.True(t, f.queue.Put(ingest.NewItem("all finished", ingest.SourceNote, time.Now())))
	waitFor(t, func() bool {
		items, _ := f.todos.List(todo.StatusDone)
		return len(items) == 1
	})

	active, err := f.todos.List(todo.StatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestConsumer_SinkFailureIsolated(t *testing.T) {
	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			// unknown todo id: the activity update finds nothing, the
			// other sinks must still run
			return &llm.ChatResponse{Content: `[{"category": "work", "importance": 3, "summary": "x", "action_type": "task_progress", "action_detail": "y", "related_todo_id": "ffffffff"}]`}, nil
		},
	}
	f := newFixture(t, provider)
	runConsumer(t, f)

	ts := time.Now()
	require.True(t, f.queue.Put(ingest.NewItem("orphan progress", ingest.SourceNote, ts)))

	waitFor(t, func() bool {
		entries, _ := f.dailyLog.Entries(ts)
		return len(entries) == 1
	})

	names, err := f.vault.List("classified")
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestConsumer_FinalDrainOnStop(t *testing.T) {
	f := newFixture(t, fallbackProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // stop before the loop ever waits

	ts := time.Now()
	require.True(t, f.queue.Put(ingest.NewItem("last words", ingest.SourceNote, ts)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.consumer.Run(ctx)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("consumer did not stop")
	}

	entries, err := f.dailyLog.Entries(ts)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "last words", entries[0].Text)
}
