package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask compacts the run history database once pruning has
// freed rows. Runs with nothing to reclaim are skipped.
func newSQLMaintenanceTask(deps TaskDeps, pruned *reclaimable) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		pending := pruned.rows.Load()
		if pending == 0 {
			log.InfoContext(ctx, "No pruned post runs since last VACUUM, skipping")
			return nil
		}

		log.InfoContext(ctx, "Compacting run history database", "pruned_rows", pending)
		started := time.Now()

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			return fmt.Errorf("run history VACUUM after pruning %d rows: %w", pending, err)
		}

		// Rows pruned while VACUUM ran stay pending for the next run.
		pruned.rows.Add(-pending)
		log.InfoContext(ctx, "Run history database compacted", "pruned_rows", pending, "duration", time.Since(started))
		return nil
	}
}
