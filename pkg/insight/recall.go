// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package insight

import (
	"fmt"
	"time"

	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/todo"
)

// Recall periods.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// RecallDay is one day inside a recall view.
type RecallDay struct {
	Date    string          `json:"date"`
	Entries []dailylog.Entry `json:"entries"`
	Stats   []CategoryStat  `json:"stats,omitempty"`
}

// RecallView is the compiled activity summary for a period.
type RecallView struct {
	Period string       `json:"period"`
	From   string       `json:"from"`
	To     string       `json:"to"`
	Days   []RecallDay  `json:"days"`
	Todos  []*todo.Item `json:"todos,omitempty"`
}

// Recall compiles the daily logs of a period into one view. Days
// without a log are skipped. The week starts on Monday; the month on
// its first day.
func (e *Engine) Recall(period string, now time.Time) (*RecallView, error) {
	var from time.Time
	switch period {
	case PeriodToday, "":
		period = PeriodToday
		from = now
	case PeriodWeek:
		// back up to Monday
		offset := (int(now.Weekday()) + 6) % 7
		from = now.AddDate(0, 0, -offset)
	case PeriodMonth:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return nil, fmt.Errorf("unknown recall period: %s", period)
	}

	view := &RecallView{
		Period: period,
		From:   from.Format("2006-01-02"),
		To:     now.Format("2006-01-02"),
	}

	for d := from; d.Format("2006-01-02") <= view.To; d = d.AddDate(0, 0, 1) {
		entries, err := e.dailyLog.Entries(d)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			continue
		}
		view.Days = append(view.Days, RecallDay{
			Date:    d.Format("2006-01-02"),
			Entries: entries,
			Stats:   Allocation(entries),
		})
	}

	active, err := e.todos.List(todo.StatusActive)
	if err == nil {
		view.Todos = active
	}
	return view, nil
}
