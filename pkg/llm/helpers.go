// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"os"
	"strings"
)

// DefaultProvider creates a provider from environment variables.
// Checks in order: DEEPSEEK_API_KEY, OPENAI_API_KEY.
// Falls back to mock if nothing is configured.
func DefaultProvider() (Provider, error) {
	if os.Getenv("DEEPSEEK_API_KEY") != "" {
		return NewProvider(Config{Provider: "deepseek"})
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewProvider(Config{Provider: "openai"})
	}
	return NewProvider(Config{Provider: "mock"})
}

// ProviderFromEnv creates a provider from a specific environment variable.
// Example: SOUL_AGENT_LLM=openai will use the OpenAI backend.
func ProviderFromEnv(envVar string) (Provider, error) {
	providerType := os.Getenv(envVar)
	if providerType == "" {
		return DefaultProvider()
	}
	return NewProvider(Config{Provider: providerType})
}

// BuildChatMessages creates a chat message array with system prompt.
func BuildChatMessages(systemPrompt, userPrompt string, history ...Message) []Message {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userPrompt})
	return messages
}

// StripFence removes a Markdown code fence wrapping a model reply.
// Models sometimes emit fenced JSON despite instructions not to.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line ("json", "yaml", ...)
		if lang := strings.TrimSpace(s[:i]); lang == "" || !strings.ContainsAny(lang, " \t") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
