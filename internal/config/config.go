// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package config loads the soul-agent configuration file. JSON is the
// primary format; .yaml/.yml files are accepted with the same schema.
// ${VAR} references in string values are expanded from the environment
// after the sibling .env file has been loaded.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultPort          = 8330
	DefaultBatchSize     = 10
	DefaultFlushSeconds  = 60
	DefaultDedupSeconds  = 60
	DefaultInsightTime   = "20:00"
	DefaultClipboardSecs = 3
	DefaultBrowserSecs   = 300
)

// Config is the full daemon configuration.
type Config struct {
	VaultPath string `json:"vault_path" yaml:"vault_path"`
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`

	LLM LLMConfig `json:"llm" yaml:"llm"`

	Queue QueueConfig `json:"queue,omitempty" yaml:"queue,omitempty"`

	WatchDirs []string `json:"watch_dirs,omitempty" yaml:"watch_dirs,omitempty"`

	Clipboard ProducerConfig `json:"clipboard,omitempty" yaml:"clipboard,omitempty"`
	Browser   ProducerConfig `json:"browser,omitempty" yaml:"browser,omitempty"`

	InputHook InputHookConfig `json:"input_hook,omitempty" yaml:"input_hook,omitempty"`

	Insight InsightConfig `json:"insight,omitempty" yaml:"insight,omitempty"`
}

// LLMConfig selects the classifier backend.
type LLMConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIBase  string `json:"api_base,omitempty" yaml:"api_base,omitempty"`
}

// QueueConfig tunes the ingest queue. Intervals are in seconds.
type QueueConfig struct {
	BatchSize     int `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	FlushInterval int `json:"flush_interval,omitempty" yaml:"flush_interval,omitempty"`
	DedupWindow   int `json:"dedup_window,omitempty" yaml:"dedup_window,omitempty"`
}

// ProducerConfig tunes a polling producer. Interval is in seconds.
type ProducerConfig struct {
	Enabled  *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Interval int   `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// InputHookConfig controls the keystroke tap.
type InputHookConfig struct {
	Enabled       bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	DedicatedApps []string `json:"dedicated_apps,omitempty" yaml:"dedicated_apps,omitempty"`
}

// InsightConfig schedules the daily report.
type InsightConfig struct {
	DailyTime string `json:"daily_time,omitempty" yaml:"daily_time,omitempty"` // HH:MM local
}

// DefaultPath returns ~/.soul-agent/config.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".soul-agent", "config.json")
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, expands, and validates the configuration at path.
// An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	loadDotenv(filepath.Join(filepath.Dir(path), ".env"))

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := envRefPattern.ReplaceAllStringFunc(string(raw), func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return ref
	})

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(expanded), cfg)
	default:
		err = json.Unmarshal([]byte(expanded), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Queue.BatchSize == 0 {
		c.Queue.BatchSize = DefaultBatchSize
	}
	if c.Queue.FlushInterval == 0 {
		c.Queue.FlushInterval = DefaultFlushSeconds
	}
	if c.Queue.DedupWindow == 0 {
		c.Queue.DedupWindow = DefaultDedupSeconds
	}
	if c.Clipboard.Interval == 0 {
		c.Clipboard.Interval = DefaultClipboardSecs
	}
	if c.Browser.Interval == 0 {
		c.Browser.Interval = DefaultBrowserSecs
	}
	if c.Insight.DailyTime == "" {
		c.Insight.DailyTime = DefaultInsightTime
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if len(c.WatchDirs) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			c.WatchDirs = []string{
				filepath.Join(home, "Desktop"),
				filepath.Join(home, "Documents"),
				filepath.Join(home, "Downloads"),
			}
		}
	}
}

func (c *Config) validate() error {
	if c.VaultPath == "" {
		return fmt.Errorf("config: vault_path is required")
	}
	if !filepath.IsAbs(c.VaultPath) {
		return fmt.Errorf("config: vault_path must be absolute, got %q", c.VaultPath)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if _, err := time.Parse("15:04", c.Insight.DailyTime); err != nil {
		return fmt.Errorf("config: insight.daily_time %q is not HH:MM", c.Insight.DailyTime)
	}
	return nil
}

// FlushInterval returns the queue flush interval as a duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Queue.FlushInterval) * time.Second
}

// DedupWindow returns the queue dedup window as a duration.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.Queue.DedupWindow) * time.Second
}

// IntervalDuration returns the producer polling interval as a duration.
func (p ProducerConfig) IntervalDuration() time.Duration {
	return time.Duration(p.Interval) * time.Second
}

// IsEnabled reports whether a producer is on; nil means enabled.
func (p ProducerConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// loadDotenv imports KEY=VALUE lines without overwriting existing
// environment variables. Missing file is fine.
func loadDotenv(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" || value == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
}
