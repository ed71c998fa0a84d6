package tasks

import (
	"context"
	"fmt"
	"time"
)

// newHistoryRetentionTask deletes chat messages older than the configured
// retention. A zero retention keeps everything.
func newHistoryRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", HistoryRetention)

	return func(ctx context.Context) error {
		if deps.HistoryRetention <= 0 {
			log.DebugContext(ctx, "History retention disabled")
			return nil
		}

		cutoff := deps.now().UTC().Add(-deps.HistoryRetention)
		startTime := time.Now()
		deleted, err := deps.Store.DeleteChatMessagesBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "History retention task failed", "error", err, "cutoff", cutoff)
			return fmt.Errorf("history retention failed: %w", err)
		}

		log.InfoContext(ctx, "Deleted old chat messages", "count", deleted, "cutoff", cutoff, "duration", time.Since(startTime))
		return nil
	}
}
