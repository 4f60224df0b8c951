// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSONWithDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{"vault_path": "/tmp/vault"}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/vault", cfg.VaultPath)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultBatchSize, cfg.Queue.BatchSize)
	assert.Equal(t, 60*time.Second, cfg.FlushInterval())
	assert.Equal(t, 60*time.Second, cfg.DedupWindow())
	assert.Equal(t, "20:00", cfg.Insight.DailyTime)
	assert.Equal(t, 3*time.Second, cfg.Clipboard.IntervalDuration())
	assert.True(t, cfg.Clipboard.IsEnabled())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
vault_path: /tmp/vault
port: 9000
queue:
  batch_size: 5
  flush_interval: 30
llm:
  provider: deepseek
  model: deepseek-chat
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5, cfg.Queue.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.FlushInterval())
	assert.Equal(t, "deepseek", cfg.LLM.Provider)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SOUL_AGENT_TEST_KEY", "sk-12345")
	path := writeConfig(t, "config.json", `{
		"vault_path": "/tmp/vault",
		"llm": {"api_key": "${SOUL_AGENT_TEST_KEY}"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-12345", cfg.LLM.APIKey)
}

func TestLoad_UnsetEnvRefLeftIntact(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"vault_path": "/tmp/vault",
		"llm": {"api_base": "${SOUL_AGENT_TEST_NO_SUCH_VAR}"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${SOUL_AGENT_TEST_NO_SUCH_VAR}", cfg.LLM.APIBase)
}

func TestLoad_DotenvSibling(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("# comment\nSOUL_AGENT_TEST_DOTENV=from-dotenv\n"), 0o644))
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"vault_path": "/tmp/vault", "llm": {"api_key": "${SOUL_AGENT_TEST_DOTENV}"}}`), 0o644))
	t.Cleanup(func() { os.Unsetenv("SOUL_AGENT_TEST_DOTENV") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
}

func TestLoad_DeepSeekKeyFallback(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-env")
	path := writeConfig(t, "config.json", `{"vault_path": "/tmp/vault"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing vault_path", `{}`},
		{"relative vault_path", `{"vault_path": "vault"}`},
		{"bad port", `{"vault_path": "/tmp/vault", "port": 99999}`},
		{"bad insight time", `{"vault_path": "/tmp/vault", "insight": {"daily_time": "25:99"}}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "config.json", tc.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestProducerConfig_ExplicitDisable(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"vault_path": "/tmp/vault",
		"clipboard": {"enabled": false}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Clipboard.IsEnabled())
	assert.True(t, cfg.Browser.IsEnabled())
}
