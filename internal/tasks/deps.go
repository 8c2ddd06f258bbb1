// Package tasks implements the scheduled maintenance tasks that keep the
// post run history database tidy.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/postbot/internal/config"
	"github.com/edgard/postbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config

	// Now defaults to time.Now.
	Now func() time.Time
}
