package tasks

import (
	"context"
	"fmt"
	"time"
)

// newRunHistoryPruneTask deletes post runs older than the configured
// retention and hands the deleted row count to the VACUUM task. A zero
// retention keeps everything.
func newRunHistoryPruneTask(deps TaskDeps, pruned *reclaimable) ScheduledTaskFunc {
	log := deps.Logger.With("task", "run_history_prune")
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return func(ctx context.Context) error {
		retention := deps.Config.Database.Retention
		if retention <= 0 {
			log.DebugContext(ctx, "Run history retention disabled, nothing to prune")
			return nil
		}

		cutoff := now().Add(-retention)
		log.InfoContext(ctx, "Pruning post run history", "before", cutoff)

		deleted, err := deps.Store.PruneRuns(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Run history prune failed", "error", err)
			return fmt.Errorf("run history prune failed: %w", err)
		}

		pruned.rows.Add(deleted)
		log.InfoContext(ctx, "Run history prune completed", "deleted", deleted)
		return nil
	}
}
