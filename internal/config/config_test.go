package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MASTODON_API_BASE_URL", "")
	t.Setenv("MASTODON_ACCESS_TOKEN", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Address != DefaultServerAddress {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, DefaultServerAddress)
	}
	if cfg.Completion.Provider != "openai" || cfg.OpenAI.Model != DefaultOpenAIModel {
		t.Errorf("completion defaults = %q/%q", cfg.Completion.Provider, cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != DefaultOpenAIMaxTokens {
		t.Errorf("OpenAI.MaxTokens = %d, want %d", cfg.OpenAI.MaxTokens, DefaultOpenAIMaxTokens)
	}
	if cfg.Completion.Instruction != DefaultCompletionInstruction {
		t.Errorf("Completion.Instruction = %q", cfg.Completion.Instruction)
	}
	if cfg.Posting.Provider != "mastodon" {
		t.Errorf("Posting.Provider = %q, want mastodon", cfg.Posting.Provider)
	}
	if cfg.OpenAI.APIKey != "" || cfg.Mastodon.AccessToken != "" {
		t.Errorf("credentials should default to empty")
	}
	task, ok := cfg.Scheduler.Tasks[TaskRunHistoryPrune]
	if !ok || !task.Enabled || task.Schedule != DefaultRunHistoryPruneSchedule {
		t.Errorf("run_history_prune task = %+v, present %v", task, ok)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("MASTODON_API_BASE_URL", "https://mastodon.example")
	t.Setenv("MASTODON_ACCESS_TOKEN", "token-123")
	t.Setenv("POSTBOT_SERVER_ADDRESS", "127.0.0.1:9000")

	path := writeConfig(t, `
logger:
  level: debug
  json: false
completion:
  provider: gemini
  timeout: 45s
gemini:
  model: gemini-test
scheduler:
  max_concurrent_jobs: 3
  tasks:
    sql_maintenance:
      enabled: false
database:
  enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Logger.Level != "debug" || cfg.Logger.JSON {
		t.Errorf("Logger = %+v", cfg.Logger)
	}
	if cfg.Completion.Provider != "gemini" || cfg.Completion.Timeout != 45*time.Second {
		t.Errorf("Completion = %+v", cfg.Completion)
	}
	if cfg.Gemini.Model != "gemini-test" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.OpenAI.APIKey != "sk-legacy" {
		t.Errorf("OpenAI.APIKey = %q, want value from OPENAI_API_KEY", cfg.OpenAI.APIKey)
	}
	if cfg.Mastodon.BaseURL != "https://mastodon.example" || cfg.Mastodon.AccessToken != "token-123" {
		t.Errorf("Mastodon = %+v", cfg.Mastodon)
	}
	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
	if cfg.Scheduler.MaxConcurrentJobs != 3 {
		t.Errorf("MaxConcurrentJobs = %d", cfg.Scheduler.MaxConcurrentJobs)
	}
	if cfg.Scheduler.Tasks[TaskSQLMaintenance].Enabled {
		t.Errorf("sql_maintenance should be disabled")
	}
	if cfg.Database.Enabled {
		t.Errorf("database should be disabled")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown log level", body: "logger:\n  level: verbose\n"},
		{name: "unknown completion provider", body: "completion:\n  provider: llama\n"},
		{name: "unknown posting provider", body: "posting:\n  provider: myspace\n"},
		{name: "invalid mastodon url", body: "mastodon:\n  base_url: not a url\n"},
		{name: "zero concurrency", body: "scheduler:\n  max_concurrent_jobs: 0\n"},
		{name: "enabled task without schedule", body: "scheduler:\n  tasks:\n    custom:\n      enabled: true\n"},
		{name: "database without path", body: "database:\n  enabled: true\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("LoadConfig() expected error, got nil")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}
