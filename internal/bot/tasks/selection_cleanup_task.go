package tasks

import (
	"context"
)

func newSelectionCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", SelectionCleanup)

	return func(ctx context.Context) error {
		if deps.Selections == nil {
			log.DebugContext(ctx, "Telegram front-end disabled, nothing to clean up")
			return nil
		}
		removed := deps.Selections.Prune()
		if removed > 0 {
			log.InfoContext(ctx, "Dropped expired selections", "count", removed)
		}
		return nil
	}
}
