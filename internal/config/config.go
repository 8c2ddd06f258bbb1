// Package config provides configuration loading, validation, and defaults
// for postbot. Values come from built-in defaults, an optional YAML file,
// a .env file, and environment variables, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration is wrapped by every error returned from Load and Validate.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration for all components.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Server     ServerConfig     `mapstructure:"server"`
	Completion CompletionConfig `mapstructure:"completion"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Posting    PostingConfig    `mapstructure:"posting"`
	Mastodon   MastodonConfig   `mapstructure:"mastodon"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"          validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// CompletionConfig selects the text generation provider and the settings
// shared by all providers.
type CompletionConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"oneof=openai gemini"`
	Instruction string        `mapstructure:"instruction" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// OpenAIConfig holds settings for the OpenAI chat completions provider.
// APIKey is intentionally not required: a missing key fails the first cycle.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string  `mapstructure:"model"       validate:"required"`
	MaxTokens   int64   `mapstructure:"max_tokens"  validate:"gt=0"`
	Temperature float64 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// GeminiConfig holds settings for the Google Gemini provider.
type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"             validate:"required"`
	Temperature     float32       `mapstructure:"temperature"       validate:"min=0,max=2"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens" validate:"gt=0"`
	MaxRetries      int           `mapstructure:"max_retries"       validate:"min=0,max=10"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       validate:"min=0"`
}

// PostingConfig selects where generated text is published.
type PostingConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=mastodon telegram"`
	Timeout  time.Duration `mapstructure:"timeout"  validate:"min=1s,max=10m"`
}

// MastodonConfig holds the Mastodon instance address and account token.
type MastodonConfig struct {
	BaseURL     string `mapstructure:"base_url"     validate:"omitempty,url"`
	AccessToken string `mapstructure:"access_token"`
	Visibility  string `mapstructure:"visibility"   validate:"oneof=public unlisted private direct"`
}

// TelegramConfig holds the bot token and the channel that receives posts.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID string `mapstructure:"chat_id"`
}

// SchedulerConfig controls the job scheduler and its maintenance tasks.
type SchedulerConfig struct {
	MaxConcurrentJobs uint                  `mapstructure:"max_concurrent_jobs" validate:"gt=0"`
	Tasks             map[string]TaskConfig `mapstructure:"tasks"               validate:"dive"`
}

// TaskConfig enables a named maintenance task on a cron schedule
// (six fields, seconds first).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// DatabaseConfig controls the post run history database.
type DatabaseConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"      validate:"required_if=Enabled true"`
	Retention time.Duration `mapstructure:"retention" validate:"min=0"`
}

// Validate checks the configuration shape. Credentials are not checked.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}
