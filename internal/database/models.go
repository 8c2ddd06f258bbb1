package database

import "time"

// Outcome classifies how a post cycle ended.
type Outcome string

// Post cycle outcomes.
const (
	OutcomePosted           Outcome = "posted"
	OutcomeEmpty            Outcome = "empty"
	OutcomeCompletionFailed Outcome = "completion_failed"
	OutcomePostingFailed    Outcome = "posting_failed"
)

// PostRun records one generate-then-publish attempt for a bot.
type PostRun struct {
	ID         int64     `db:"id"          json:"id"`
	BotID      int64     `db:"bot_id"      json:"bot_id"`
	BotName    string    `db:"bot_name"    json:"bot_name"`
	Outcome    Outcome   `db:"outcome"     json:"outcome"`
	Content    string    `db:"content"     json:"content,omitempty"`
	Error      string    `db:"error"       json:"error,omitempty"`
	StartedAt  time.Time `db:"started_at"  json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}
