// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// canonicalKeys is the fixed emission order for known frontmatter
// fields. Unknown keys are appended after these, lexicographically,
// so Build(Parse(x)) is stable for user-edited files.
var canonicalKeys = []string{
	"id", "type", "priority", "status", "category", "tags",
	"importance", "created", "expires", "last_activity",
	"activity_log", "auto_detected", "date",
}

// PriorityTTL maps a priority to its retention in days. P0 resources
// never expire.
var PriorityTTL = map[string]int{
	"P1": 30,
	"P2": 14,
	"P3": 7,
}

// Parse splits a Markdown document into its frontmatter fields and
// body. The header grammar is a run of "key: value" lines between two
// "---" lines; a document without a leading "---" is all body.
func Parse(content []byte) (map[string]string, string) {
	text := string(content)
	if !strings.HasPrefix(text, "---") {
		return map[string]string{}, text
	}

	parts := strings.SplitN(text, "---", 3)
	if len(parts) < 3 {
		return map[string]string{}, text
	}

	fields := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(parts[1]), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields, strings.TrimSpace(parts[2])
}

// Build renders fields and body back into a Markdown document. Known
// keys are emitted in canonical order, everything else after them in
// lexicographic order.
func Build(fields map[string]string, body string) []byte {
	var b strings.Builder
	b.WriteString("---\n")

	seen := map[string]bool{}
	for _, key := range canonicalKeys {
		if v, ok := fields[key]; ok {
			b.WriteString(key + ": " + v + "\n")
			seen[key] = true
		}
	}

	var rest []string
	for key := range fields {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		b.WriteString(key + ": " + fields[key] + "\n")
	}

	b.WriteString("---\n")
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// AddClassification records the classifier's verdict on a resource.
func AddClassification(fields map[string]string, category string, tags []string, importance int) {
	fields["category"] = category
	fields["tags"] = strings.Join(tags, ",")
	fields["importance"] = strconv.Itoa(importance)
}

// AddLifecycle stamps priority, creation date, and the expiry derived
// from the priority TTL table. P0 carries no expiry.
func AddLifecycle(fields map[string]string, priority string, now time.Time) {
	fields["priority"] = priority
	fields["created"] = now.Format("2006-01-02")
	if ttl, ok := PriorityTTL[priority]; ok {
		fields["expires"] = now.AddDate(0, 0, ttl).Format("2006-01-02")
	}
}

// IsExpired reports whether a resource has passed its expiry date.
// P0 resources and resources without an expires field never expire.
func IsExpired(fields map[string]string, today time.Time) bool {
	if fields["priority"] == "P0" {
		return false
	}
	raw := fields["expires"]
	if raw == "" {
		return false
	}
	expires, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return false
	}
	return today.After(expires)
}

// ParseTags splits the comma-separated tags field.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
