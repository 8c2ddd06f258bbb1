package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// DefaultRunsLimit and MaxRunsLimit bound ListRuns.
const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 100
)

// Store defines the run history operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveRun inserts a post run record and sets its ID.
	SaveRun(ctx context.Context, run *PostRun) error

	// ListRuns returns the most recent runs for a bot, newest first.
	ListRuns(ctx context.Context, botID int64, limit int) ([]PostRun, error)

	// PruneRuns deletes runs started before the cutoff and reports how many were removed.
	PruneRuns(ctx context.Context, before time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveRun(ctx context.Context, run *PostRun) error {
	if run == nil {
		return fmt.Errorf("cannot save nil run")
	}
	if run.Outcome == "" {
		return fmt.Errorf("run must have an outcome")
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("run must have a non-zero started_at")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()

	query := `
        INSERT INTO post_runs (bot_id, bot_name, outcome, content, error, started_at, finished_at)
        VALUES (:bot_id, :bot_name, :outcome, :content, :error, :started_at, :finished_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, run)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving post run", "bot_id", run.BotID, "outcome", run.Outcome, "error", err)
		return fmt.Errorf("failed to save post run (bot %d): %w", run.BotID, err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		run.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving post run", "bot_id", run.BotID, "error", err)
	}

	s.logger.DebugContext(ctx, "Post run saved", "bot_id", run.BotID, "run_id", run.ID, "outcome", run.Outcome)
	return nil
}

func (s *sqlxStore) ListRuns(ctx context.Context, botID int64, limit int) ([]PostRun, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	} else if limit > MaxRunsLimit {
		limit = MaxRunsLimit
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	runs := []PostRun{}
	query := `
        SELECT id, bot_id, bot_name, outcome, content, error, started_at, finished_at
        FROM post_runs
        WHERE bot_id = ?
        ORDER BY started_at DESC, id DESC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &runs, query, botID, limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching runs", "bot_id", botID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing post runs", "bot_id", botID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to list post runs for bot %d: %w", botID, err)
	}

	return runs, nil
}

func (s *sqlxStore) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM post_runs WHERE started_at < ?;`, before.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning post runs", "before", before, "error", err)
		return 0, fmt.Errorf("failed to prune post runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}

	s.logger.InfoContext(ctx, "Pruned post runs", "before", before, "deleted", deleted)
	return deleted, nil
}

// RunSQLMaintenance runs VACUUM, which SQLite requires outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}

// nopStore is used when the run history database is disabled.
type nopStore struct{}

// NewNopStore returns a Store that keeps nothing.
func NewNopStore() Store { return nopStore{} }

func (nopStore) Ping(context.Context) error { return nil }

func (nopStore) SaveRun(context.Context, *PostRun) error { return nil }

func (nopStore) PruneRuns(context.Context, time.Time) (int64, error) { return 0, nil }

func (nopStore) RunSQLMaintenance(context.Context) error { return nil }

func (nopStore) ListRuns(context.Context, int64, int) ([]PostRun, error) {
	return []PostRun{}, nil
}
