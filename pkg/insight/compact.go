// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AustinWp/soul-agent/pkg/llm"
	"github.com/AustinWp/soul-agent/pkg/todo"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

const weeklySystemPrompt = `You are a personal memory analyst. Given the following daily logs and context
from a week, produce a structured weekly report in markdown with these sections:

## Key Activities
- Bullet list of main things done

## Decisions Made
- Important choices and their rationale

## Ongoing Threads
- Work in progress, unresolved items

## Patterns & Observations
- Recurring themes, habits, or notable trends

Be concise. ~300 tokens max. Focus on signal, not noise.`

const monthlySystemPrompt = `You are a personal memory analyst. Given the following weekly reports for a month,
produce a structured monthly summary in markdown with these sections:

## Month Overview
- High-level summary (2-3 sentences)

## Key Accomplishments
- Major completions and milestones

## Themes
- Recurring topics and focus areas

## Looking Forward
- Open threads and upcoming priorities

Be concise. ~400 tokens max.`

// WeekLabel returns the ISO week label for a date, like "2026-W08".
func WeekLabel(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthLabel returns the month label for a date, like "2026-02".
func MonthLabel(date time.Time) string {
	return date.Format("2006-01")
}

// weekStart returns the Monday of the week containing date.
func weekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// HasWeekly reports whether the weekly report covering date has been
// persisted already.
func (e *Engine) HasWeekly(date time.Time) bool {
	content, err := e.store.Read(insightsDir, WeekLabel(date)+".md")
	return err == nil && content != nil
}

// CompactWeek compresses the daily logs of the week containing date
// into a weekly report at insights/YYYY-Www.md. Returns "" when the
// week has no logs at all. LLM failure degrades to a plain
// concatenation of the logs, so the report always materializes.
func (e *Engine) CompactWeek(ctx context.Context, date time.Time) (string, error) {
	start := weekStart(date)
	end := start.AddDate(0, 0, 6)
	label := WeekLabel(date)

	var logs []string
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		body, err := e.dailyLog.ReadDay(day)
		if err != nil {
			return "", fmt.Errorf("read daily log: %w", err)
		}
		if body != "" {
			logs = append(logs, fmt.Sprintf("### %s\n%s", day.Format("2006-01-02"), body))
		}
	}
	if len(logs) == 0 {
		e.logger.Info("insight.compact.empty", "week", label)
		return "", nil
	}

	material := strings.Join(logs, "\n\n")
	if done, _ := e.todos.List(todo.StatusDone); len(done) > 0 {
		var items []string
		for _, t := range done {
			if len(items) == 10 {
				break
			}
			items = append(items, "- "+clip(t.Text, 100))
		}
		material += "\n\n### Completed Todos\n" + strings.Join(items, "\n")
	}

	prompt := fmt.Sprintf("Week: %s to %s\n\n%s",
		start.Format("2006-01-02"), end.Format("2006-01-02"), material)

	report := e.summarize(ctx, weeklySystemPrompt, prompt, 500)
	if report == "" {
		report = fmt.Sprintf("# Week %s\n\n%s", label, strings.Join(logs, "\n\n"))
	}

	fields := map[string]string{
		"type": "weekly-report",
		"week": label,
	}
	vault.AddLifecycle(fields, "P1", date)

	if err := e.store.Write(insightsDir, label+".md", vault.Build(fields, report)); err != nil {
		return "", fmt.Errorf("persist weekly report: %w", err)
	}
	e.logger.Info("insight.compact.week", "week", label)
	return report, nil
}

// CompactMonth aggregates the weekly reports of the month containing
// date into insights/YYYY-MM.md. Months without weekly reports fall
// back to clipped daily logs; a month with neither yields "".
func (e *Engine) CompactMonth(ctx context.Context, date time.Time) (string, error) {
	label := MonthLabel(date)

	var sections []string
	names, err := e.store.List(insightsDir)
	if err != nil {
		return "", fmt.Errorf("list insights: %w", err)
	}
	weekPrefix := fmt.Sprintf("%d-W", date.Year())
	for _, name := range names {
		if !strings.HasPrefix(name, weekPrefix) {
			continue
		}
		content, err := e.store.Read(insightsDir, name)
		if err != nil || content == nil {
			continue
		}
		_, body := vault.Parse(content)
		sections = append(sections, fmt.Sprintf("### %s\n%s", strings.TrimSuffix(name, ".md"), body))
	}

	if len(sections) == 0 {
		day := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.Local)
		for day.Month() == date.Month() {
			body, err := e.dailyLog.ReadDay(day)
			if err != nil {
				return "", fmt.Errorf("read daily log: %w", err)
			}
			if body != "" {
				sections = append(sections, fmt.Sprintf("### %s\n%s", day.Format("2006-01-02"), clip(body, 200)))
			}
			day = day.AddDate(0, 0, 1)
		}
	}
	if len(sections) == 0 {
		e.logger.Info("insight.compact.empty", "month", label)
		return "", nil
	}

	material := strings.Join(sections, "\n\n")
	prompt := fmt.Sprintf("Month: %s\n\n%s", label, material)

	report := e.summarize(ctx, monthlySystemPrompt, prompt, 600)
	if report == "" {
		report = fmt.Sprintf("# Month %s\n\n%s", label, material)
	}

	fields := map[string]string{
		"type":  "monthly-report",
		"month": label,
	}
	vault.AddLifecycle(fields, "P1", date)

	if err := e.store.Write(insightsDir, label+".md", vault.Build(fields, report)); err != nil {
		return "", fmt.Errorf("persist monthly report: %w", err)
	}
	e.logger.Info("insight.compact.month", "month", label)
	return report, nil
}

// summarize runs one compression call; "" means the caller falls back.
func (e *Engine) summarize(ctx context.Context, system, prompt string, maxTokens int) string {
	if e.provider == nil {
		return ""
	}
	resp, err := e.provider.Chat(ctx, llm.ChatRequest{
		Messages:  llm.BuildChatMessages(system, prompt),
		MaxTokens: maxTokens,
	})
	if err != nil {
		e.logger.Warn("insight.compact.llm.failed", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Content)
}
