// Package cycle implements the post cycle: generate text for a bot's prompt
// and publish it. Failures are logged and recorded, never returned.
package cycle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/postbot/internal/completion"
	"github.com/edgard/postbot/internal/database"
	"github.com/edgard/postbot/internal/posting"
	"github.com/edgard/postbot/internal/registry"
)

// RunRecorder persists cycle outcomes.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *database.PostRun) error
}

// Runner executes post cycles. It is safe for concurrent use as long as its
// collaborators are.
type Runner struct {
	completion completion.Client
	poster     posting.Poster
	recorder   RunRecorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewRunner creates a Runner. recorder may be nil.
func NewRunner(client completion.Client, poster posting.Poster, recorder RunRecorder, logger *slog.Logger) *Runner {
	return &Runner{
		completion: client,
		poster:     poster,
		recorder:   recorder,
		logger:     logger.With("component", "post_cycle"),
		now:        time.Now,
	}
}

// Run performs one generate-then-publish attempt for bot and reports how it
// ended. There is no retry, fallback content, or backoff.
func (r *Runner) Run(ctx context.Context, bot registry.Bot) database.Outcome {
	log := r.logger.With("bot_id", bot.ID, "bot_name", bot.Name)
	log.InfoContext(ctx, "Running scheduled post")

	run := &database.PostRun{
		BotID:     bot.ID,
		BotName:   bot.Name,
		StartedAt: r.now(),
	}

	text, err := r.completion.Generate(ctx, bot.Prompt)
	text = strings.TrimSpace(text)
	switch {
	case err != nil:
		log.ErrorContext(ctx, "Content generation failed", "error", err)
		run.Outcome = database.OutcomeCompletionFailed
		run.Error = err.Error()

	case text == "":
		log.WarnContext(ctx, "No content generated")
		run.Outcome = database.OutcomeEmpty

	default:
		run.Content = text
		if err := r.poster.Post(ctx, text); err != nil {
			log.ErrorContext(ctx, "Posting failed, generated content discarded", "error", err)
			run.Outcome = database.OutcomePostingFailed
			run.Error = err.Error()
		} else {
			log.InfoContext(ctx, "Posted generated content", "length", len(text))
			run.Outcome = database.OutcomePosted
		}
	}

	run.FinishedAt = r.now()
	r.record(ctx, log, run)
	return run.Outcome
}

func (r *Runner) record(ctx context.Context, log *slog.Logger, run *database.PostRun) {
	if r.recorder == nil {
		return
	}

	// Recorded even when the cycle context was cancelled at shutdown.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.recorder.SaveRun(recordCtx, run); err != nil {
		log.WarnContext(ctx, "Failed to record post run", "outcome", run.Outcome, "error", err)
	}
}
