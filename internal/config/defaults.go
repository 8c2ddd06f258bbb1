package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultServerAddress         = "0.0.0.0:8000"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 15 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultCompletionProvider    = "openai"
	DefaultCompletionInstruction = "You are a helpful assistant."
	DefaultCompletionTimeout     = 2 * time.Minute

	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultOpenAIMaxTokens   = 100
	DefaultOpenAITemperature = 0.8

	DefaultGeminiModel           = "gemini-2.0-flash"
	DefaultGeminiTemperature     = 0.8
	DefaultGeminiMaxOutputTokens = 100
	DefaultGeminiMaxRetries      = 0
	DefaultGeminiRetryDelay      = 2 * time.Second

	DefaultPostingProvider    = "mastodon"
	DefaultPostingTimeout     = 30 * time.Second
	DefaultMastodonVisibility = "public"

	DefaultSchedulerMaxConcurrentJobs = 10

	DefaultDatabaseEnabled   = true
	DefaultDatabasePath      = "postbot.db"
	DefaultDatabaseRetention = 30 * 24 * time.Hour
)

// Maintenance task names and their default cron schedules.
const (
	TaskSQLMaintenance  = "sql_maintenance"
	TaskRunHistoryPrune = "run_history_prune"

	DefaultSQLMaintenanceSchedule  = "0 30 3 * * 0" // Sundays 03:30
	DefaultRunHistoryPruneSchedule = "0 0 3 * * *"  // daily 03:00
)

// setDefaults registers every key with the loader so environment variables
// are picked up for keys that are absent from the config file.
func setDefaults(v setter) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("server.address", DefaultServerAddress)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("completion.provider", DefaultCompletionProvider)
	v.SetDefault("completion.instruction", DefaultCompletionInstruction)
	v.SetDefault("completion.timeout", DefaultCompletionTimeout)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", DefaultOpenAIModel)
	v.SetDefault("openai.max_tokens", DefaultOpenAIMaxTokens)
	v.SetDefault("openai.temperature", DefaultOpenAITemperature)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.max_output_tokens", DefaultGeminiMaxOutputTokens)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay", DefaultGeminiRetryDelay)

	v.SetDefault("posting.provider", DefaultPostingProvider)
	v.SetDefault("posting.timeout", DefaultPostingTimeout)

	v.SetDefault("mastodon.base_url", "")
	v.SetDefault("mastodon.access_token", "")
	v.SetDefault("mastodon.visibility", DefaultMastodonVisibility)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("scheduler.max_concurrent_jobs", DefaultSchedulerMaxConcurrentJobs)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".schedule", DefaultSQLMaintenanceSchedule)
	v.SetDefault("scheduler.tasks."+TaskRunHistoryPrune+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskRunHistoryPrune+".schedule", DefaultRunHistoryPruneSchedule)

	v.SetDefault("database.enabled", DefaultDatabaseEnabled)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.retention", DefaultDatabaseRetention)
}

type setter interface {
	SetDefault(key string, value any)
}
