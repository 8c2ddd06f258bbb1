package tasks

import (
	"context"
	"sync/atomic"

	"github.com/edgard/postbot/internal/config"
)

// ScheduledTaskFunc defines the signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// reclaimable counts rows pruned since the last successful VACUUM.
type reclaimable struct {
	rows atomic.Int64
}

// RegisterAllTasks returns every known task keyed by the name used in the
// scheduler.tasks section of the configuration. All tasks work on the run
// history database, so none are returned when it is disabled.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	if !deps.Config.Database.Enabled {
		deps.Logger.Info("Run history database disabled, no maintenance tasks registered")
		return tasks
	}

	pruned := &reclaimable{}
	tasks[config.TaskRunHistoryPrune] = newRunHistoryPruneTask(deps, pruned)
	tasks[config.TaskSQLMaintenance] = newSQLMaintenanceTask(deps, pruned)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
