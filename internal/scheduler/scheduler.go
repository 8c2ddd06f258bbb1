// Package scheduler runs one recurring gocron job per bot plus the named
// maintenance tasks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/edgard/postbot/internal/config"
	"github.com/edgard/postbot/internal/database"
	"github.com/edgard/postbot/internal/logger"
	"github.com/edgard/postbot/internal/registry"
	"github.com/edgard/postbot/internal/tasks"
)

// ErrInvalidInterval is returned when a bot's post interval is not positive
// or does not fit in a time.Duration.
var ErrInvalidInterval = errors.New("post interval must be between 1 and 153722867 minutes")

// MaxIntervalMinutes is the longest post interval a time.Duration can hold.
const MaxIntervalMinutes = math.MaxInt64 / int64(time.Minute)

// ValidInterval reports whether minutes is a usable post interval.
func ValidInterval(minutes int) bool {
	return minutes > 0 && int64(minutes) <= MaxIntervalMinutes
}

// CycleRunner runs one post cycle for a bot.
type CycleRunner interface {
	Run(ctx context.Context, bot registry.Bot) database.Outcome
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIntervalUnit sets the duration of one interval step. Defaults to a minute.
func WithIntervalUnit(unit time.Duration) Option {
	return func(s *Scheduler) {
		if unit > 0 {
			s.unit = unit
		}
	}
}

// Scheduler manages bot jobs and scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       config.SchedulerConfig
	runner    CycleRunner
	taskMap   map[string]tasks.ScheduledTaskFunc
	unit      time.Duration

	// ctx is handed to every cycle and task; cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[int64]uuid.UUID
	running bool
}

// New creates a scheduler. Jobs only fire after Start.
func New(log *slog.Logger, cfg config.SchedulerConfig, runner CycleRunner, taskMap map[string]tasks.ScheduledTaskFunc, opts ...Option) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "scheduler")

	maxJobs := cfg.MaxConcurrentJobs
	if maxJobs == 0 {
		maxJobs = config.DefaultSchedulerMaxConcurrentJobs
	}

	gs, err := gocron.NewScheduler(
		gocron.WithLogger(logger.NewGocronLogger(log)),
		gocron.WithLimitConcurrentJobs(maxJobs, gocron.LimitModeReschedule),
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		scheduler: gs,
		logger:    log,
		cfg:       cfg,
		runner:    runner,
		taskMap:   taskMap,
		unit:      time.Minute,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[int64]uuid.UUID),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Schedule creates or replaces the recurring job for bot. The first fire
// happens one full interval from now. Once Schedule returns, the replaced
// job no longer fires.
func (s *Scheduler) Schedule(bot registry.Bot) error {
	if !ValidInterval(bot.PostIntervalMinutes) || int64(bot.PostIntervalMinutes) > math.MaxInt64/int64(s.unit) {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.jobs[bot.ID]; ok {
		if err := s.scheduler.RemoveJob(prev); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			return fmt.Errorf("failed to remove existing job for bot %d: %w", bot.ID, err)
		}
		delete(s.jobs, bot.ID)
		s.logger.Info("Replaced existing bot job", "bot_id", bot.ID)
	}

	interval := time.Duration(bot.PostIntervalMinutes) * s.unit
	name := jobName(bot.ID)

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runCycle, bot),
		gocron.WithName(name),
		gocron.WithTags(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule bot %d: %w", bot.ID, err)
	}

	s.jobs[bot.ID] = job.ID()
	s.logger.Info("Scheduled bot", "bot_id", bot.ID, "bot_name", bot.Name, "interval", interval)
	return nil
}

// Unschedule removes the job for id and reports whether one existed.
func (s *Scheduler) Unschedule(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobID, ok := s.jobs[id]
	if !ok {
		return false
	}
	delete(s.jobs, id)

	if err := s.scheduler.RemoveJob(jobID); err != nil {
		s.logger.Warn("Failed to remove bot job", "bot_id", id, "error", err)
	}
	return true
}

// NextRun returns when the job for id fires next.
func (s *Scheduler) NextRun(id int64) (time.Time, bool) {
	s.mu.Lock()
	jobID, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	for _, job := range s.scheduler.Jobs() {
		if job.ID() != jobID {
			continue
		}
		next, err := job.NextRun()
		if err != nil {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}

// runCycle executes on gocron's goroutines. A panicking cycle is logged and
// the job keeps its schedule.
func (s *Scheduler) runCycle(bot registry.Bot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Post cycle panicked", "bot_id", bot.ID, "panic", r)
		}
	}()

	if s.ctx.Err() != nil {
		return
	}
	s.runner.Run(s.ctx, bot)
}

// Start schedules all enabled maintenance tasks and starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduledCount := 0
	for taskName, taskConfig := range s.cfg.Tasks {
		if !taskConfig.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", taskName)
			continue
		}

		taskFunc, exists := s.taskMap[taskName]
		if !exists {
			s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(taskConfig.Schedule, true),
			gocron.NewTask(s.runTask, taskName, taskFunc),
			gocron.WithName(taskName),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", taskName, "schedule", taskConfig.Schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled task", "task_name", taskName, "schedule", taskConfig.Schedule)
		scheduledCount++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduledCount, "bots_scheduled", len(s.jobs))

	return nil
}

func (s *Scheduler) runTask(name string, taskFunc tasks.ScheduledTaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled task panicked", "task_name", name, "panic", r)
		}
	}()

	s.logger.Info("Running scheduled task", "task_name", name)
	startTime := time.Now()

	if err := taskFunc(s.ctx); err != nil {
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
	}

	s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
}

// Stop cancels in-flight cycles and waits for running jobs to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}

func jobName(id int64) string {
	return fmt.Sprintf("bot_%d", id)
}
