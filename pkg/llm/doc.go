// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package llm provides the chat-completion client behind soul-agent's
// activity classifier and insight engine.
//
// The daemon talks to one provider at a time. DeepSeek is the default;
// any OpenAI-compatible endpoint works through the same code path, and
// a mock provider keeps tests offline.
//
// # Quick Start
//
// Create a provider explicitly:
//
//	provider, err := llm.NewProvider(llm.Config{
//	    Provider: "deepseek",
//	    APIKey:   os.Getenv("DEEPSEEK_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Chat(ctx, llm.ChatRequest{
//	    Messages: llm.BuildChatMessages(
//	        "You are an activity classifier.",
//	        "Classify the following items...",
//	    ),
//	})
//
// # Provider Selection
//
// The [DefaultProvider] function selects a provider from available
// environment variables, checking in order:
//  1. DEEPSEEK_API_KEY set - DeepSeek
//  2. OPENAI_API_KEY set - OpenAI (or OPENAI_BASE_URL compatible)
//  3. No credentials - mock provider
//
// # Error Handling
//
// Chat errors wrap the provider name and HTTP status so callers can
// log and fall back:
//
//	resp, err := provider.Chat(ctx, req)
//	if err != nil {
//	    // e.g. "deepseek chat error (status 401): invalid api key"
//	    return err
//	}
package llm
