// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package insight builds the daily activity report from the parsed
// daily log and the to-do store, with an LLM-written advice section.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/llm"
	"github.com/AustinWp/soul-agent/pkg/todo"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

const insightsDir = "insights"

// NoData marks a report for a day without any logged activity.
const NoData = "no data"

const adviceSystemPrompt = "You are the user's personal work advisor. " +
	"Based on the day's activity and task state, give 2-4 concrete, decision-level " +
	"observations as a Markdown list. Focus on unfinished key work, follow-ups at " +
	"risk of being forgotten, and priorities. No pleasantries."

// maxRepresentatives bounds the example entries shown per category.
const maxRepresentatives = 3

// CategoryStat is one row of the time-allocation table.
type CategoryStat struct {
	Category        string   `json:"category"`
	Count           int      `json:"count"`
	Percent         int      `json:"percent"`
	Representatives []string `json:"representatives,omitempty"`
}

// Engine generates insight reports.
type Engine struct {
	dailyLog *dailylog.Log
	todos    *todo.Store
	store    *vault.Store
	provider llm.Provider
	logger   *slog.Logger
}

// New wires an Engine. provider may be nil, which skips the advice
// section entirely.
func New(dailyLog *dailylog.Log, todos *todo.Store, store *vault.Store, provider llm.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		dailyLog: dailyLog,
		todos:    todos,
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

// Allocation computes per-category counts, percentages, and up to
// three representative entries for a day.
func Allocation(entries []dailylog.Entry) []CategoryStat {
	if len(entries) == 0 {
		return nil
	}

	byCategory := make(map[string][]dailylog.Entry)
	for _, e := range entries {
		cat := e.Category
		if cat == "" {
			cat = "uncategorized"
		}
		byCategory[cat] = append(byCategory[cat], e)
	}

	stats := make([]CategoryStat, 0, len(byCategory))
	for cat, group := range byCategory {
		stat := CategoryStat{
			Category: cat,
			Count:    len(group),
			Percent:  (len(group)*100 + len(entries)/2) / len(entries),
		}
		for _, e := range group {
			if len(stat.Representatives) == maxRepresentatives {
				break
			}
			stat.Representatives = append(stat.Representatives, e.Text)
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Category < stats[j].Category
	})
	return stats
}

// Report builds the Markdown insight report for a date. A day without
// a log yields a short report carrying the NoData marker.
func (e *Engine) Report(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("2006-01-02")

	entries, err := e.dailyLog.Entries(date)
	if err != nil {
		return "", fmt.Errorf("load daily log: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Sprintf("# Daily Insight — %s\n\n%s\n", day, NoData), nil
	}

	stats := Allocation(entries)
	doneToday, _ := e.todos.DoneOn(date)
	active, _ := e.todos.List(todo.StatusActive)
	stalled, _ := e.todos.Stalled(todo.DefaultStaleDays)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Daily Insight — %s\n\n", day)

	sb.WriteString("## Time Allocation\n\n")
	for _, s := range stats {
		fmt.Fprintf(&sb, "- **%s**: %d entries (%d%%)\n", s.Category, s.Count, s.Percent)
	}
	sb.WriteString("\n")

	sb.WriteString("## Task Tracking\n\n")
	fmt.Fprintf(&sb, "**Done today** (%d)\n\n", len(doneToday))
	for _, t := range doneToday {
		fmt.Fprintf(&sb, "- %s\n", clip(t.Text, 80))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "**Active** (%d)\n\n", len(active))
	for _, t := range active {
		fmt.Fprintf(&sb, "- %s\n", clip(t.Text, 80))
	}
	sb.WriteString("\n")
	if len(stalled) > 0 {
		fmt.Fprintf(&sb, "**Stalled** (%d)\n\n", len(stalled))
		for _, t := range stalled {
			last := t.LastActivity
			if last == "" {
				last = t.Created
			}
			fmt.Fprintf(&sb, "- %s (last activity: %s)\n", clip(t.Text, 80), last)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Core Topics\n\n")
	for _, s := range stats {
		if len(s.Representatives) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "**%s**\n\n", s.Category)
		for _, r := range s.Representatives {
			fmt.Fprintf(&sb, "- %s\n", clip(r, 100))
		}
		sb.WriteString("\n")
	}

	if advice := e.advice(ctx, sb.String(), active, stalled); advice != "" {
		sb.WriteString("## Work Advice\n\n")
		sb.WriteString(advice)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// advice asks the LLM for the final section; "" means omit it.
func (e *Engine) advice(ctx context.Context, partialReport string, active, stalled []*todo.Item) string {
	if e.provider == nil {
		return ""
	}

	var prompt strings.Builder
	prompt.WriteString("Today's activity report so far:\n\n")
	prompt.WriteString(partialReport)
	prompt.WriteString("\nActive tasks:\n")
	for _, t := range active {
		fmt.Fprintf(&prompt, "- %s\n", t.Text)
	}
	prompt.WriteString("\nStalled tasks:\n")
	for _, t := range stalled {
		fmt.Fprintf(&prompt, "- %s (last activity %s)\n", t.Text, t.LastActivity)
	}

	resp, err := e.provider.Chat(ctx, llm.ChatRequest{
		Messages:  llm.BuildChatMessages(adviceSystemPrompt, prompt.String()),
		MaxTokens: 512,
	})
	if err != nil {
		e.logger.Warn("insight.advice.failed", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Content)
}

// Generate builds the report for date and persists it to
// insights/daily-YYYY-MM-DD.md with lifecycle fields.
func (e *Engine) Generate(ctx context.Context, date time.Time) (string, error) {
	report, err := e.Report(ctx, date)
	if err != nil {
		return "", err
	}

	day := date.Format("2006-01-02")
	fields := map[string]string{
		"type": "insight",
		"date": day,
	}
	vault.AddLifecycle(fields, "P2", date)

	name := "daily-" + day + ".md"
	if err := e.store.Write(insightsDir, name, vault.Build(fields, report)); err != nil {
		return "", fmt.Errorf("persist insight: %w", err)
	}

	e.logger.Info("insight.generate", "date", day, "file", name)
	return report, nil
}

// Load returns a previously persisted report body, or "" if absent.
func (e *Engine) Load(date time.Time) (string, error) {
	name := "daily-" + date.Format("2006-01-02") + ".md"
	content, err := e.store.Read(insightsDir, name)
	if err != nil || content == nil {
		return "", err
	}
	_, body := vault.Parse(content)
	return body, nil
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
