package handlers

import (
	"log/slog"

	"github.com/edgard/middleman/internal/config"
	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/recommend"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Fetcher    *recommend.Fetcher
	Engine     *recommend.Engine
	Selections *SelectionCache
}
