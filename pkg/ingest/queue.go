// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"sync"
	"time"
)

// Queue defaults. flushInterval doubles as the implicit GetBatch wait
// when the caller passes no timeout.
const (
	DefaultBatchSize     = 10
	DefaultFlushInterval = 60 * time.Second
	DefaultDedupWindow   = 60 * time.Second

	// maxPending is the shed threshold: producers must never block,
	// so beyond this depth new puts are dropped instead of queued.
	maxPending = 10_000
)

// Queue is a thread-safe FIFO with a content-hash dedup window and
// batch-ready signaling. Producers call Put; the single pipeline
// consumer calls GetBatch.
type Queue struct {
	batchSize     int
	flushInterval time.Duration
	dedupWindow   time.Duration

	mu    sync.Mutex
	items []*Item
	seen  map[string]time.Time // hash16 -> insertion instant
	ready chan struct{}

	nowFn func() time.Time // test seam
}

// QueueOption tweaks queue construction.
type QueueOption func(*Queue)

// WithBatchSize overrides the batch-release threshold.
func WithBatchSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.batchSize = n
		}
	}
}

// WithFlushInterval overrides the idle flush interval.
func WithFlushInterval(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.flushInterval = d
		}
	}
}

// WithDedupWindow overrides the dedup window.
func WithDedupWindow(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.dedupWindow = d
		}
	}
}

// NewQueue builds a queue with the stock defaults, adjusted by opts.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
		dedupWindow:   DefaultDedupWindow,
		seen:          make(map[string]time.Time),
		ready:         make(chan struct{}, 1),
		nowFn:         time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Put enqueues item unless its content hash was seen within the dedup
// window or the queue is shedding load. Returns whether the item was
// accepted.
func (q *Queue) Put(item *Item) bool {
	h := item.Hash16()
	now := q.nowFn()

	q.mu.Lock()
	q.purgeSeenLocked(now)

	if _, dup := q.seen[h]; dup {
		q.mu.Unlock()
		queueMetrics.deduped.Inc()
		return false
	}
	if len(q.items) >= maxPending {
		q.mu.Unlock()
		queueMetrics.shed.Inc()
		return false
	}

	q.seen[h] = now
	q.items = append(q.items, item)
	signal := len(q.items) >= q.batchSize
	q.mu.Unlock()

	queueMetrics.enqueued.Inc()
	if signal {
		q.signalReady()
	}
	return true
}

// PendingCount returns the number of queued items.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// GetBatch waits up to timeout (the flush interval when timeout is
// negative) for a batch to become ready, then drains and returns up to
// batchSize items in enqueue order. An empty return marks an idle
// interval. ctx cancellation interrupts the wait immediately.
func (q *Queue) GetBatch(ctx context.Context, timeout time.Duration) []*Item {
	if timeout < 0 {
		timeout = q.flushInterval
	}
	deadline := time.Now().Add(timeout)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		wait := remaining
		if q.flushInterval < wait {
			wait = q.flushInterval
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return q.drain()
		case <-q.ready:
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}

		if batch := q.drain(); len(batch) > 0 {
			return batch
		}
	}
	return q.drain()
}

// drain removes and returns up to batchSize items. When a full batch
// is still left behind, the ready signal is re-armed so the next
// GetBatch returns without waiting.
func (q *Queue) drain() []*Item {
	q.mu.Lock()
	n := len(q.items)
	if n == 0 {
		q.mu.Unlock()
		return nil
	}
	if n > q.batchSize {
		n = q.batchSize
	}
	batch := q.items[:n:n]
	q.items = append([]*Item(nil), q.items[n:]...)
	rearm := len(q.items) >= q.batchSize
	q.mu.Unlock()

	queueMetrics.batches.Inc()
	if rearm {
		q.signalReady()
	}
	return batch
}

func (q *Queue) signalReady() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *Queue) purgeSeenLocked(now time.Time) {
	cutoff := now.Add(-q.dedupWindow)
	for h, ts := range q.seen {
		if ts.Before(cutoff) {
			delete(q.seen, h)
		}
	}
}
