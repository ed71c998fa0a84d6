// Package tasks implements the scheduled maintenance tasks.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/middleman/internal/database"
)

// SelectionPruner drops expired pending selections.
type SelectionPruner interface {
	Prune() int
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	// Selections is nil when the Telegram front-end is disabled.
	Selections       SelectionPruner
	HistoryRetention time.Duration
	Now              func() time.Time
}

func (d TaskDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
