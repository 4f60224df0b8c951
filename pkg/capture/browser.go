// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AustinWp/soul-agent/pkg/ingest"
)

// Browsers hold write locks on their history databases, so every poll
// copies the file aside and reads the copy.

var skipURLPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"chrome-search://",
	"about:",
	"blob:",
	"data:",
	"file://",
	"devtools://",
	"safari-resource://",
}

// chromeEpochOffset converts Chrome's microseconds-since-1601 to Unix.
const chromeEpochOffset = 11_644_473_600_000_000

// safariEpochOffset converts Safari's seconds-since-2001 to Unix.
const safariEpochOffset = 978_307_200

// Visit is one browser history row.
type Visit struct {
	URL   string
	Title string
	Time  time.Time
}

// historySource reads visits newer than a cursor from one browser.
type historySource struct {
	name   string
	dbPath string
	query  func(db *sql.DB, since time.Time) ([]Visit, error)
	cursor time.Time
}

// BrowserPoller polls Chrome and Safari history with independent
// cursors and enqueues new visits.
type BrowserPoller struct {
	queue    *ingest.Queue
	interval time.Duration
	logger   *slog.Logger
	sources  []*historySource
}

// NewBrowserPoller creates a poller over the default Chrome and Safari
// history locations. Cursors start at the poller's creation time so
// old history is never replayed.
func NewBrowserPoller(queue *ingest.Queue, interval time.Duration, logger *slog.Logger) *BrowserPoller {
	home, _ := os.UserHomeDir()
	return newBrowserPoller(queue, interval, logger,
		filepath.Join(home, "Library/Application Support/Google/Chrome/Default/History"),
		filepath.Join(home, "Library/Safari/History.db"))
}

func newBrowserPoller(queue *ingest.Queue, interval time.Duration, logger *slog.Logger, chromePath, safariPath string) *BrowserPoller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &BrowserPoller{
		queue:    queue,
		interval: interval,
		logger:   logger,
		sources: []*historySource{
			{name: "chrome", dbPath: chromePath, query: chromeVisits, cursor: now},
			{name: "safari", dbPath: safariPath, query: safariVisits, cursor: now},
		},
	}
}

// Run polls until ctx is canceled.
func (p *BrowserPoller) Run(ctx context.Context) {
	p.logger.Info("capture.browser.start", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("capture.browser.stop")
			return
		case <-ticker.C:
			for _, src := range p.sources {
				p.pollSource(src)
			}
		}
	}
}

func (p *BrowserPoller) pollSource(src *historySource) {
	visits, err := readHistory(src)
	if err != nil {
		p.logger.Debug("capture.browser.read.failed", "browser", src.name, "error", err)
		return
	}

	for _, v := range visits {
		if skipURL(v.URL) {
			continue
		}
		text := fmt.Sprintf("%s — %s", v.Title, v.URL)
		p.queue.Put(ingest.NewBrowserItem(text, v.URL, v.Title, v.Time))
		if v.Time.After(src.cursor) {
			src.cursor = v.Time
		}
	}
}

// readHistory copies the database aside, opens it read-only, and
// returns rows newer than the source cursor.
func readHistory(src *historySource) ([]Visit, error) {
	if _, err := os.Stat(src.dbPath); err != nil {
		return nil, err
	}

	tmp, err := copyFile(src.dbPath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	db, err := sql.Open("sqlite", "file:"+tmp+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return src.query(db, src.cursor)
}

func chromeVisits(db *sql.DB, since time.Time) ([]Visit, error) {
	chromeSince := since.UnixMicro() + chromeEpochOffset
	rows, err := db.Query(`
		SELECT u.url, u.title, v.visit_time
		FROM visits v
		JOIN urls u ON v.url = u.id
		WHERE v.visit_time > ?
		ORDER BY v.visit_time ASC`, chromeSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var url string
		var title sql.NullString
		var visitTime int64
		if err := rows.Scan(&url, &title, &visitTime); err != nil {
			return nil, err
		}
		visits = append(visits, Visit{
			URL:   url,
			Title: title.String,
			Time:  time.UnixMicro(visitTime - chromeEpochOffset),
		})
	}
	return visits, rows.Err()
}

func safariVisits(db *sql.DB, since time.Time) ([]Visit, error) {
	safariSince := float64(since.Unix()) - safariEpochOffset
	rows, err := db.Query(`
		SELECT hi.url, hv.title, hv.visit_time
		FROM history_visits hv
		JOIN history_items hi ON hv.history_item = hi.id
		WHERE hv.visit_time > ?
		ORDER BY hv.visit_time ASC`, safariSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var url string
		var title sql.NullString
		var visitTime float64
		if err := rows.Scan(&url, &title, &visitTime); err != nil {
			return nil, err
		}
		visits = append(visits, Visit{
			URL:   url,
			Title: title.String,
			Time:  time.Unix(int64(visitTime+safariEpochOffset), 0),
		})
	}
	return visits, rows.Err()
}

func skipURL(url string) bool {
	if url == "" {
		return true
	}
	lower := strings.ToLower(url)
	for _, prefix := range skipURLPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func copyFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp("", "soul-agent-history-*.sqlite")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
