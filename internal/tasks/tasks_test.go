package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edgard/postbot/internal/config"
	"github.com/edgard/postbot/internal/database"
	"github.com/edgard/postbot/internal/logger"
)

type fakeStore struct {
	database.Store

	maintenanceErr   error
	maintenanceCalls int
	pruneBefore      []time.Time
	pruneDeleted     int64
	pruneErr         error
}

func (f *fakeStore) RunSQLMaintenance(context.Context) error {
	f.maintenanceCalls++
	return f.maintenanceErr
}

func (f *fakeStore) PruneRuns(_ context.Context, before time.Time) (int64, error) {
	f.pruneBefore = append(f.pruneBefore, before)
	if f.pruneErr != nil {
		return 0, f.pruneErr
	}
	return f.pruneDeleted, nil
}

func testDeps(store *fakeStore, retention time.Duration, now time.Time) TaskDeps {
	cfg := &config.Config{}
	cfg.Database.Enabled = true
	cfg.Database.Retention = retention
	return TaskDeps{
		Logger: logger.Discard(),
		Store:  store,
		Config: cfg,
		Now:    func() time.Time { return now },
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(testDeps(&fakeStore{}, time.Hour, time.Now()))
	for _, name := range []string{config.TaskSQLMaintenance, config.TaskRunHistoryPrune} {
		if tasks[name] == nil {
			t.Errorf("task %q not registered", name)
		}
	}
}

func TestRegisterAllTasksDatabaseDisabled(t *testing.T) {
	t.Parallel()

	deps := testDeps(&fakeStore{}, time.Hour, time.Now())
	deps.Config.Database.Enabled = false

	if tasks := RegisterAllTasks(deps); len(tasks) != 0 {
		t.Errorf("RegisterAllTasks() = %d tasks, want none", len(tasks))
	}
}

func TestSQLMaintenanceRunsOnlyAfterPruning(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	tasks := RegisterAllTasks(testDeps(store, 24*time.Hour, now))
	prune, vacuum := tasks[config.TaskRunHistoryPrune], tasks[config.TaskSQLMaintenance]
	ctx := context.Background()

	if err := vacuum(ctx); err != nil {
		t.Fatalf("vacuum() error = %v", err)
	}
	if store.maintenanceCalls != 0 {
		t.Fatalf("VACUUM ran with nothing pruned")
	}

	if err := prune(ctx); err != nil {
		t.Fatalf("prune() error = %v", err)
	}
	if err := vacuum(ctx); err != nil {
		t.Fatalf("vacuum() error = %v", err)
	}
	if store.maintenanceCalls != 0 {
		t.Fatalf("VACUUM ran after a prune that deleted nothing")
	}

	store.pruneDeleted = 5
	if err := prune(ctx); err != nil {
		t.Fatalf("prune() error = %v", err)
	}

	store.maintenanceErr = errors.New("database is locked")
	if err := vacuum(ctx); err == nil {
		t.Fatal("vacuum() expected error")
	}

	store.maintenanceErr = nil
	if err := vacuum(ctx); err != nil {
		t.Fatalf("vacuum() error = %v", err)
	}
	if store.maintenanceCalls != 2 {
		t.Errorf("maintenance calls = %d, want 2 (failed VACUUM is retried)", store.maintenanceCalls)
	}

	if err := vacuum(ctx); err != nil {
		t.Fatalf("vacuum() error = %v", err)
	}
	if store.maintenanceCalls != 2 {
		t.Errorf("maintenance calls = %d, want 2 after compaction", store.maintenanceCalls)
	}
}

func TestRunHistoryPruneTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		retention   time.Duration
		deleted     int64
		pruneErr    error
		wantCutoff  time.Time
		wantCalls   int
		wantPending int64
		wantErr     bool
	}{
		{name: "prunes older than retention", retention: 24 * time.Hour, deleted: 3, wantCutoff: now.Add(-24 * time.Hour), wantCalls: 1, wantPending: 3},
		{name: "zero retention keeps everything", retention: 0},
		{name: "store failure", retention: time.Hour, pruneErr: errors.New("disk"), wantCutoff: now.Add(-time.Hour), wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{pruneDeleted: tt.deleted, pruneErr: tt.pruneErr}
			pruned := &reclaimable{}
			err := newRunHistoryPruneTask(testDeps(store, tt.retention, now), pruned)(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("task() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(store.pruneBefore) != tt.wantCalls {
				t.Fatalf("prune calls = %d, want %d", len(store.pruneBefore), tt.wantCalls)
			}
			if tt.wantCalls > 0 && !store.pruneBefore[0].Equal(tt.wantCutoff) {
				t.Errorf("cutoff = %v, want %v", store.pruneBefore[0], tt.wantCutoff)
			}
			if got := pruned.rows.Load(); got != tt.wantPending {
				t.Errorf("pending rows = %d, want %d", got, tt.wantPending)
			}
		})
	}
}
