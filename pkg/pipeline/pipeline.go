// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package pipeline drains the ingest queue, classifies each batch, and
// fans the results out to the daily log, the vault, and the to-do
// store. One consumer goroutine owns the whole path.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/AustinWp/soul-agent/pkg/classify"
	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/ingest"
	"github.com/AustinWp/soul-agent/pkg/todo"
)

// drainTimeout bounds one GetBatch wait so the consumer notices stop
// requests promptly.
const drainTimeout = 2 * time.Second

// Consumer is the single pipeline drain loop.
type Consumer struct {
	queue      *ingest.Queue
	classifier *classify.Classifier
	dailyLog   *dailylog.Log
	vault      vaultSink
	todos      *todo.Store
	logger     *slog.Logger
}

// vaultSink is the slice of the vault the pipeline writes through.
type vaultSink interface {
	IngestText(text, source string) error
}

// New wires a Consumer. All sinks are required.
func New(queue *ingest.Queue, classifier *classify.Classifier, dailyLog *dailylog.Log, vault vaultSink, todos *todo.Store, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		queue:      queue,
		classifier: classifier,
		dailyLog:   dailyLog,
		vault:      vault,
		todos:      todos,
		logger:     logger,
	}
}

// Run drains batches until ctx is canceled, then drains one final
// batch before returning.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("pipeline.start")
	for {
		select {
		case <-ctx.Done():
			// final drain so items accepted before shutdown are not lost
			if batch := c.queue.GetBatch(context.Background(), 0); len(batch) > 0 {
				c.process(context.Background(), batch)
			}
			c.logger.Info("pipeline.stop")
			return
		default:
		}

		batch := c.queue.GetBatch(ctx, drainTimeout)
		if len(batch) == 0 {
			continue
		}
		c.process(ctx, batch)
	}
}

// process classifies one batch and applies all side effects. Failures
// in one sink never abort the others.
func (c *Consumer) process(ctx context.Context, batch []*ingest.Item) {
	start := time.Now()

	var activeTodos []classify.TodoSummary
	for _, s := range c.todos.ActiveSummaries() {
		activeTodos = append(activeTodos, classify.TodoSummary{ID: s.ID, Text: s.Text})
	}

	classified := c.classifier.Classify(ctx, batch, activeTodos)
	for _, item := range classified {
		c.persist(item)
	}

	pipelineMetrics.processed.Add(float64(len(classified)))
	c.logger.Debug("pipeline.batch",
		"size", len(batch),
		"duration", time.Since(start))
}

func (c *Consumer) persist(item *ingest.Classified) {
	if err := c.dailyLog.Append(item.Text, string(item.Source), item.Timestamp, item.Category, item.Tags, item.Importance); err != nil {
		pipelineMetrics.sinkErrors.WithLabelValues("dailylog").Inc()
		c.logger.Warn("pipeline.dailylog.failed", "error", err, "source", item.Source)
	}

	if err := c.vault.IngestText(item.Text, string(item.Source)); err != nil {
		pipelineMetrics.sinkErrors.WithLabelValues("vault").Inc()
		c.logger.Warn("pipeline.vault.failed", "error", err, "source", item.Source)
	}

	switch item.ActionType {
	case ingest.ActionNewTask:
		if item.ActionDetail == "" {
			return
		}
		id, err := c.todos.Create(item.ActionDetail, "P2", true)
		if err != nil {
			pipelineMetrics.sinkErrors.WithLabelValues("todo").Inc()
			c.logger.Warn("pipeline.todo.create.failed", "error", err)
			return
		}
		c.logger.Info("pipeline.todo.detected", "id", id)

	case ingest.ActionTaskProgress, ingest.ActionTaskDone:
		if item.RelatedTodoID == "" {
			return
		}
		found, err := c.todos.RecordActivity(item.RelatedTodoID, string(item.Source), item.Timestamp)
		if err != nil {
			pipelineMetrics.sinkErrors.WithLabelValues("todo").Inc()
			c.logger.Warn("pipeline.todo.activity.failed", "error", err, "id", item.RelatedTodoID)
			return
		}
		if !found {
			c.logger.Debug("pipeline.todo.unknown", "id", item.RelatedTodoID)
			return
		}
		if item.ActionType == ingest.ActionTaskDone {
			if _, err := c.todos.Complete(item.RelatedTodoID); err != nil {
				pipelineMetrics.sinkErrors.WithLabelValues("todo").Inc()
				c.logger.Warn("pipeline.todo.complete.failed", "error", err, "id", item.RelatedTodoID)
			}
		}
	}
}
