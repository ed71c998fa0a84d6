// Package main contains the entrypoint for the middleman reply recommendation service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	"github.com/edgard/middleman/internal/api"
	"github.com/edgard/middleman/internal/bot"
	"github.com/edgard/middleman/internal/bot/handlers"
	"github.com/edgard/middleman/internal/bot/tasks"
	"github.com/edgard/middleman/internal/config"
	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/gemini"
	"github.com/edgard/middleman/internal/logger"
	"github.com/edgard/middleman/internal/recommend"
	"github.com/edgard/middleman/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", "", "Optional dotenv file loaded before the configuration")
	flag.Parse()

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			slog.Error("Failed to load env file", "path", *envPath, "error", err)
			return 1
		}
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	model, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	fetcher := recommend.NewFetcher(store, log)
	engine := recommend.NewEngine(fetcher, model, log)

	service := api.NewService(store, fetcher, engine, log)
	server := api.NewServer(cfg.HTTP, api.NewRouter(cfg.HTTP, service, log))

	tDeps := tasks.TaskDeps{
		Logger:           log,
		Store:            store,
		HistoryRetention: cfg.Database.HistoryRetention,
	}

	var tg *tgbot.Bot
	if cfg.Telegram.Enabled() {
		selections := handlers.NewSelectionCache(cfg.Telegram.SelectionTTL, nil)
		tDeps.Selections = selections

		tg, err = telegram.NewTelegramBot(cfg.Telegram.Token, log, tgbot.WithMiddlewares(logger.TelegramMiddleware(log)))
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return 1
		}

		hDeps := handlers.HandlerDeps{
			Logger:     log,
			Config:     cfg,
			Store:      store,
			Fetcher:    fetcher,
			Engine:     engine,
			Selections: selections,
		}
		if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return 1
		}
	} else {
		log.Info("Telegram front-end disabled")
	}

	sched, err := bot.NewScheduler(log, cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	runErr := bot.NewOrchestrator(log, server, tg, sched).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Service stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Service stopped gracefully")
	return 0
}
