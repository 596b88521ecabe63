// Package config loads and validates runtime configuration from a YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"trendwatch/internal/types"
)

// Environment variables recognized at load time.
const (
	EnvConfigPath   = "TRENDWATCH_CONFIG"
	EnvJournalMode  = "SQLITE_JOURNAL_MODE"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvTelegramBot  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChat = "TELEGRAM_CHAT_ID"
)

// Config is the top-level runtime configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Notify   NotifyConfig   `yaml:"notify"`
	AI       AIConfig       `yaml:"ai"`
}

// StorageConfig controls shard placement and lifecycle.
type StorageConfig struct {
	DataDir       string `yaml:"data_dir"`
	JournalMode   string `yaml:"journal_mode"` // empty = auto-detect
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
	OffListCycles int    `yaml:"off_list_cycles"`
	RetentionDays int    `yaml:"retention_days"` // <= 0 disables sweeping
	EnableTXT     bool   `yaml:"enable_txt"`
}

// AnalysisConfig controls the importance classification run.
type AnalysisConfig struct {
	MaxPerRun     int      `yaml:"max_analyze_per_run"`
	BatchSize     int      `yaml:"batch_size"`
	PushLevels    []string `yaml:"push_levels"`
	MaxPushPerRun int      `yaml:"max_push_per_run"`
}

// NotifyConfig holds outbound channel settings.
type NotifyConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
	WebhookURL       string `yaml:"webhook_url"`
}

// AIConfig holds classifier client settings.
type AIConfig struct {
	APIKey             string `yaml:"api_key"`
	Model              string `yaml:"model"`
	MaxConcurrentCalls int    `yaml:"max_concurrent_calls"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:       "output",
			BusyTimeoutMS: 5000,
			OffListCycles: 2,
			RetentionDays: 30,
			EnableTXT:     true,
		},
		Analysis: AnalysisConfig{
			MaxPerRun:     100,
			BatchSize:     20,
			PushLevels:    []string{"critical", "high"},
			MaxPushPerRun: 50,
		},
		AI: AIConfig{
			MaxConcurrentCalls: 3,
		},
	}
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvJournalMode); v != "" {
		cfg.Storage.JournalMode = strings.ToUpper(v)
	}
	if v := os.Getenv(EnvAnthropicKey); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv(EnvTelegramBot); v != "" {
		cfg.Notify.TelegramBotToken = v
	}
	if v := os.Getenv(EnvTelegramChat); v != "" {
		cfg.Notify.TelegramChatID = v
	}

	cfg.Analysis.PushLevels = sanitizePushLevels(cfg.Analysis.PushLevels)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration has valid field values
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	switch c.Storage.JournalMode {
	case "", "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY":
	default:
		return fmt.Errorf("storage.journal_mode must be one of WAL, DELETE, TRUNCATE, PERSIST, MEMORY (got %s)", c.Storage.JournalMode)
	}
	if c.Storage.BusyTimeoutMS < 0 {
		return fmt.Errorf("storage.busy_timeout_ms must be non-negative (got %d)", c.Storage.BusyTimeoutMS)
	}
	if c.Storage.OffListCycles < 1 {
		return fmt.Errorf("storage.off_list_cycles must be at least 1 (got %d)", c.Storage.OffListCycles)
	}
	if c.Analysis.MaxPerRun < 1 {
		return fmt.Errorf("analysis.max_analyze_per_run must be positive (got %d)", c.Analysis.MaxPerRun)
	}
	if c.Analysis.BatchSize < 1 {
		return fmt.Errorf("analysis.batch_size must be positive (got %d)", c.Analysis.BatchSize)
	}
	if c.Analysis.MaxPushPerRun < 0 {
		return fmt.Errorf("analysis.max_push_per_run must be non-negative (got %d)", c.Analysis.MaxPushPerRun)
	}
	if c.AI.MaxConcurrentCalls < 1 {
		return fmt.Errorf("ai.max_concurrent_calls must be positive (got %d)", c.AI.MaxConcurrentCalls)
	}
	return nil
}

// sanitizePushLevels drops unknown labels. An empty result falls back to the
// defaults rather than silencing all pushes by accident.
func sanitizePushLevels(levels []string) []string {
	var out []string
	for _, l := range levels {
		if types.Importance(l).IsValid() {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []string{"critical", "high"}
	}
	return out
}

// PushLevelSet returns the push levels as a lookup set.
func (c *Config) PushLevelSet() map[types.Importance]bool {
	set := make(map[types.Importance]bool, len(c.Analysis.PushLevels))
	for _, l := range c.Analysis.PushLevels {
		set[types.Importance(l)] = true
	}
	return set
}
