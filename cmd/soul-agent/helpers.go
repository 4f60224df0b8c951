// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/AustinWp/soul-agent/internal/config"
	"github.com/AustinWp/soul-agent/internal/errors"
	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/insight"
	"github.com/AustinWp/soul-agent/pkg/llm"
	"github.com/AustinWp/soul-agent/pkg/todo"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

// loadConfig loads and validates the configuration, exiting with a
// structured error on failure.
func loadConfig(globals GlobalFlags) *config.Config {
	cfg, err := config.Load(globals.ConfigPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load soul-agent configuration",
			err.Error(),
			"Create ~/.soul-agent/config.json with at least a vault_path",
			err,
		), globals.JSON)
	}
	return cfg
}

// openVault opens the configured vault, exiting on failure.
func openVault(cfg *config.Config, globals GlobalFlags) *vault.Store {
	store, err := vault.New(cfg.VaultPath)
	if err != nil {
		errors.FatalError(errors.NewVaultError(
			"Cannot open the vault",
			err.Error(),
			"Check that vault_path exists and is writable",
			err,
		), globals.JSON)
	}
	return store
}

// openTodos opens the to-do store on top of the configured vault.
func openTodos(cfg *config.Config, globals GlobalFlags) *todo.Store {
	return todo.New(openVault(cfg, globals), nil)
}

// buildEngine assembles an insight engine backed by the configured
// LLM provider. Advice generation degrades gracefully when the
// provider has no API key.
func buildEngine(cfg *config.Config, globals GlobalFlags) *insight.Engine {
	store := openVault(cfg, globals)
	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.APIBase,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		provider = nil
	}
	return insight.New(dailylog.New(store, nil), todo.New(store, nil), store, provider, nil)
}
