// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ActivityEntry is one day's worth of recorded activity on a to-do.
// The on-disk encoding is "YYYY-MM-DD:N:src1,src2" entries joined by
// "|", strictly date-ordered.
type ActivityEntry struct {
	Date    string   `json:"date"`
	Count   int      `json:"count"`
	Sources []string `json:"sources"`
}

// ParseActivityLog decodes an activity_log field. Malformed segments
// are skipped; an empty string means no entries.
func ParseActivityLog(raw string) []ActivityEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var entries []ActivityEntry
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segs := strings.SplitN(part, ":", 3)
		if len(segs) != 3 {
			continue
		}
		count, err := strconv.Atoi(segs[1])
		if err != nil {
			continue
		}
		var sources []string
		for _, s := range strings.Split(segs[2], ",") {
			if s != "" {
				sources = append(sources, s)
			}
		}
		entries = append(entries, ActivityEntry{Date: segs[0], Count: count, Sources: sources})
	}
	return entries
}

func serializeActivity(entries []ActivityEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s:%d:%s", e.Date, e.Count, strings.Join(e.Sources, ",")))
	}
	return strings.Join(parts, "|")
}

// AddActivityEntry records activity from source on the given ISO date.
// A repeated date increments its count and unions the source set;
// entries stay date-ordered and last_activity tracks the maximum date.
func AddActivityEntry(fields map[string]string, date, source string) {
	entries := ParseActivityLog(fields["activity_log"])

	found := false
	for i := range entries {
		if entries[i].Date == date {
			entries[i].Count++
			if !contains(entries[i].Sources, source) {
				entries[i].Sources = append(entries[i].Sources, source)
			}
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, ActivityEntry{Date: date, Count: 1, Sources: []string{source}})
		sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	}

	fields["activity_log"] = serializeActivity(entries)
	fields["last_activity"] = entries[len(entries)-1].Date
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
