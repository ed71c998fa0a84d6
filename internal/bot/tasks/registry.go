package tasks

import (
	"context"

	"github.com/edgard/middleman/internal/metrics"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context is
// cancelled when the scheduler stops.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, matching the keys of the scheduler.tasks config section.
const (
	SQLMaintenance   = "sql_maintenance"
	SelectionCleanup = "selection_cleanup"
	HistoryRetention = "history_retention"
)

// RegisterAllTasks returns every scheduled task keyed by name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		SQLMaintenance:   newSQLMaintenanceTask(deps),
		SelectionCleanup: newSelectionCleanupTask(deps),
		HistoryRetention: newHistoryRetentionTask(deps),
	}
	for name, task := range tasks {
		tasks[name] = instrumented(name, task)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

func instrumented(name string, task ScheduledTaskFunc) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		err := task(ctx)
		metrics.RecordTaskRun(name, err)
		return err
	}
}
