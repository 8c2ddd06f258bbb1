// Package service coordinates the bot registry, the job scheduler, and the
// run history behind the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/postbot/internal/database"
	"github.com/edgard/postbot/internal/registry"
	"github.com/edgard/postbot/internal/scheduler"
)

var (
	// ErrInvalidInterval is returned for a post interval that is not positive
	// or too long to schedule.
	ErrInvalidInterval = scheduler.ErrInvalidInterval

	// ErrDuplicateID is returned when the bot id is already registered.
	ErrDuplicateID = registry.ErrDuplicateID

	// ErrBotNotFound is returned when no bot is registered under an id.
	ErrBotNotFound = errors.New("bot not found")
)

// JobScheduler creates or replaces recurring post jobs.
type JobScheduler interface {
	Schedule(bot registry.Bot) error
}

// RunLister reads the post run history.
type RunLister interface {
	ListRuns(ctx context.Context, botID int64, limit int) ([]database.PostRun, error)
}

// BotService implements bot registration on top of the registry.
type BotService struct {
	registry  *registry.Registry
	scheduler JobScheduler
	runs      RunLister
	logger    *slog.Logger
}

// NewBotService creates a BotService. runs may be nil when the history
// database is disabled.
func NewBotService(reg *registry.Registry, sched JobScheduler, runs RunLister, logger *slog.Logger) *BotService {
	if runs == nil {
		runs = database.NewNopStore()
	}
	return &BotService{
		registry:  reg,
		scheduler: sched,
		runs:      runs,
		logger:    logger.With("component", "bot_service"),
	}
}

// List returns all registered bots in registration order.
func (s *BotService) List() []registry.Bot {
	return s.registry.List()
}

// Register adds bot to the registry and schedules its recurring posts. A
// bot whose schedule cannot be created is removed again.
func (s *BotService) Register(bot registry.Bot) (registry.Bot, error) {
	if !scheduler.ValidInterval(bot.PostIntervalMinutes) {
		return registry.Bot{}, ErrInvalidInterval
	}

	registered, err := s.registry.Register(bot)
	if err != nil {
		s.logger.Warn("Bot registration rejected", "bot_id", bot.ID, "error", err)
		return registry.Bot{}, err
	}

	if err := s.scheduler.Schedule(registered); err != nil {
		s.registry.Remove(registered.ID)
		s.logger.Error("Failed to schedule bot, registration rolled back", "bot_id", bot.ID, "error", err)
		return registry.Bot{}, fmt.Errorf("failed to schedule bot %d: %w", bot.ID, err)
	}

	s.logger.Info("Bot registered",
		"bot_id", registered.ID,
		"bot_name", registered.Name,
		"post_interval_minutes", registered.PostIntervalMinutes,
		"registered_bots", s.registry.Len())
	return registered, nil
}

// Runs returns the most recent post runs of a registered bot.
func (s *BotService) Runs(ctx context.Context, id int64, limit int) ([]database.PostRun, error) {
	if _, ok := s.registry.Get(id); !ok {
		return nil, ErrBotNotFound
	}
	return s.runs.ListRuns(ctx, id, limit)
}
