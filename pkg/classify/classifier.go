// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package classify labels batches of ingest items with a category,
// tags, importance, and optional to-do actions. The LLM does the real
// work; a fixed rule table covers every failure path so the pipeline
// never stalls on a bad response.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AustinWp/soul-agent/pkg/ingest"
	"github.com/AustinWp/soul-agent/pkg/llm"
)

// DefaultTimeout bounds one classification call including the LLM round trip.
const DefaultTimeout = 30 * time.Second

const maxSummaryLen = 30

const systemPrompt = "You are a classification engine for a personal memory agent. " +
	"Classify each item into exactly one category and return structured JSON."

// TodoSummary is the compact view of an active to-do handed to the
// prompt so the model can link items to existing tasks.
type TodoSummary struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// fallbackCategories maps a source to its rule-based category. Sources
// not listed classify as "work".
var fallbackCategories = map[ingest.Source]string{
	ingest.SourceTerminal:    ingest.CategoryCoding,
	ingest.SourceBrowser:     ingest.CategoryBrowsing,
	ingest.SourceClaudeCode:  ingest.CategoryCoding,
	ingest.SourceInputMethod: ingest.CategoryCommunication,
}

// Classifier labels ingest batches via an LLM provider.
type Classifier struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *Classifier) { c.model = model }
}

// WithTimeout overrides the per-batch LLM timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) { c.timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// New creates a Classifier backed by the given provider.
func New(provider llm.Provider, opts ...Option) *Classifier {
	c := &Classifier{
		provider: provider,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// llmResult mirrors one element of the model's JSON array reply.
type llmResult struct {
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Importance    *int     `json:"importance"`
	Summary       string   `json:"summary"`
	ActionType    string   `json:"action_type"`
	ActionDetail  string   `json:"action_detail"`
	RelatedTodoID string   `json:"related_todo_id"`
}

// Classify labels every item in the batch. It never returns an error:
// any failure (network, timeout, malformed JSON, length mismatch)
// degrades the affected items to the rule-based fallback.
// Results map 1:1 to inputs by index.
func (c *Classifier) Classify(ctx context.Context, items []*ingest.Item, activeTodos []TodoSummary) []*ingest.Classified {
	if len(items) == 0 {
		return nil
	}

	parsed := c.callLLM(ctx, items, activeTodos)

	results := make([]*ingest.Classified, len(items))
	for i, item := range items {
		if parsed != nil && i < len(parsed) && ingest.ValidCategory(parsed[i].Category) {
			results[i] = coerce(item, parsed[i])
		} else {
			classifierMetrics.fallbacks.Inc()
			results[i] = Fallback(item)
		}
	}
	return results
}

// callLLM runs the chat call and parses the reply. A nil return means
// the whole batch falls back.
func (c *Classifier) callLLM(ctx context.Context, items []*ingest.Item, activeTodos []TodoSummary) []llmResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.provider.Chat(ctx, llm.ChatRequest{
		Messages:  llm.BuildChatMessages(systemPrompt, buildPrompt(items, activeTodos)),
		Model:     c.model,
		MaxTokens: 1024,
	})
	if err != nil {
		c.logger.Warn("classify.llm.failed",
			"error", err,
			"batch_size", len(items),
			"duration", time.Since(start))
		return nil
	}

	parsed, err := parseResponse(resp.Content, len(items))
	if err != nil {
		c.logger.Warn("classify.parse.failed",
			"error", err,
			"batch_size", len(items))
		return nil
	}

	c.logger.Debug("classify.llm.done",
		"batch_size", len(items),
		"tokens", resp.TotalTokens,
		"duration", time.Since(start))
	return parsed
}

// buildPrompt renders the batch and the active to-do context into a
// single user message.
func buildPrompt(items []*ingest.Item, activeTodos []TodoSummary) string {
	var sb strings.Builder

	sb.WriteString("Classify each of the following items. For every item return a JSON object with:\n")
	sb.WriteString(`- "category": one of ` + strings.Join([]string{
		ingest.CategoryBrowsing, ingest.CategoryCoding, ingest.CategoryCommunication,
		ingest.CategoryLearning, ingest.CategoryLife, ingest.CategoryWork,
	}, ", ") + "\n")
	sb.WriteString("- \"tags\": list of short keyword strings (at most 5)\n")
	sb.WriteString("- \"importance\": integer 1-5 (1=trivial, 5=critical)\n")
	sb.WriteString(fmt.Sprintf("- \"summary\": summary of at most %d characters\n", maxSummaryLen))
	sb.WriteString("- \"action_type\": null, \"new_task\", \"task_progress\", or \"task_done\"\n")
	sb.WriteString("- \"action_detail\": string or null, description of the action if action_type is set\n")
	sb.WriteString("- \"related_todo_id\": string or null, ID of an existing todo if this updates one\n\n")
	sb.WriteString(fmt.Sprintf("Return a JSON array with exactly %d objects (one per item, same order).\n", len(items)))
	sb.WriteString("Do NOT wrap the output in markdown fences.\n\n")

	if len(activeTodos) > 0 {
		todoJSON, _ := json.Marshal(activeTodos)
		sb.WriteString("Active todos:\n")
		sb.Write(todoJSON)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("No active todos.\n\n")
	}

	sb.WriteString("Items:\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. [%s, %s] %s\n", i+1, item.Source, item.Timestamp.Format("15:04"), item.Text)
	}
	return sb.String()
}

// parseResponse decodes the model reply into exactly count results.
func parseResponse(raw string, count int) ([]llmResult, error) {
	text := llm.StripFence(raw)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var parsed []llmResult
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed) != count {
		return nil, fmt.Errorf("expected %d results, got %d", count, len(parsed))
	}
	return parsed, nil
}

// coerce normalizes one valid LLM result onto an item.
func coerce(item *ingest.Item, r llmResult) *ingest.Classified {
	// An omitted importance means "unstated" and takes the default;
	// stated values are clamped.
	importance := 3
	if r.Importance != nil {
		importance = *r.Importance
	}
	if importance < 1 {
		importance = 1
	} else if importance > 5 {
		importance = 5
	}

	summary := truncate(strings.TrimSpace(r.Summary), maxSummaryLen)
	if summary == "" {
		summary = truncate(item.Text, maxSummaryLen)
	}

	tags := r.Tags
	if len(tags) > 5 {
		tags = tags[:5]
	}

	out := &ingest.Classified{
		Item:       *item,
		Category:   r.Category,
		Tags:       tags,
		Importance: importance,
		Summary:    summary,
	}
	if ingest.ValidAction(r.ActionType) && r.ActionDetail != "" {
		out.ActionType = r.ActionType
		out.ActionDetail = r.ActionDetail
		out.RelatedTodoID = r.RelatedTodoID
	}
	return out
}

// Fallback applies the rule table: category from the source, importance
// 3, summary from the text, no tags and no action.
func Fallback(item *ingest.Item) *ingest.Classified {
	category, ok := fallbackCategories[item.Source]
	if !ok {
		category = ingest.CategoryWork
	}
	return &ingest.Classified{
		Item:       *item,
		Category:   category,
		Tags:       []string{},
		Importance: 3,
		Summary:    truncate(item.Text, maxSummaryLen),
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
