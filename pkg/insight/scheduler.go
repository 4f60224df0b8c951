// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package insight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers daily report generation at a fixed local time.
type Scheduler struct {
	engine *Engine
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler builds a scheduler firing every day at dailyTime
// ("HH:MM", local).
func NewScheduler(engine *Engine, dailyTime string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	at, err := time.Parse("15:04", dailyTime)
	if err != nil {
		return nil, fmt.Errorf("insight schedule time %q: %w", dailyTime, err)
	}

	s := &Scheduler{
		engine: engine,
		cron:   cron.New(cron.WithLocation(time.Local)),
		logger: logger,
	}

	spec := fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour())
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("insight schedule: %w", err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	if _, err := s.engine.Generate(ctx, now); err != nil {
		s.logger.Warn("insight.schedule.failed", "error", err)
	}

	// Backfill last week's compaction once the week has closed.
	lastWeek := now.AddDate(0, 0, -7)
	if !s.engine.HasWeekly(lastWeek) {
		if _, err := s.engine.CompactWeek(ctx, lastWeek); err != nil {
			s.logger.Warn("insight.compact.schedule.failed", "error", err)
		}
	}
}

// Start begins firing. Stop waits for a running generation to finish.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("insight.schedule.start")
}

// Stop halts the schedule and blocks until an in-flight run completes.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("insight.schedule.stop")
}
