// Package main contains the entrypoint for the postbot service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgard/postbot/internal/api"
	"github.com/edgard/postbot/internal/app"
	"github.com/edgard/postbot/internal/completion"
	"github.com/edgard/postbot/internal/config"
	"github.com/edgard/postbot/internal/cycle"
	"github.com/edgard/postbot/internal/database"
	"github.com/edgard/postbot/internal/logger"
	"github.com/edgard/postbot/internal/posting"
	"github.com/edgard/postbot/internal/registry"
	"github.com/edgard/postbot/internal/scheduler"
	"github.com/edgard/postbot/internal/service"
	"github.com/edgard/postbot/internal/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires all components, blocks until shutdown, and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	store := database.NewNopStore()
	if cfg.Database.Enabled {
		db, err := database.NewDB(cfg.Database.Path)
		if err != nil {
			log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
			return 1
		}
		defer database.CloseDB(db)
		store = database.NewStore(db, log)
	} else {
		log.Info("Run history database disabled")
	}

	completionClient, err := completion.New(cfg, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "provider", cfg.Completion.Provider, "error", err)
		return 1
	}

	poster, err := posting.New(cfg, log)
	if err != nil {
		log.Error("Failed to initialize poster", "provider", cfg.Posting.Provider, "error", err)
		return 1
	}

	runner := cycle.NewRunner(completionClient, poster, store, log)
	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	})

	schedCfg := cfg.Scheduler
	if !cfg.Database.Enabled {
		schedCfg.Tasks = nil
	}

	sched, err := scheduler.New(log, schedCfg, runner, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	bots := service.NewBotService(registry.New(), sched, store, log)
	server := api.NewServer(cfg.Server, bots, store, log)

	runErr := app.New(log, cfg.Server, server, sched).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Postbot stopped due to error", "error", runErr)
		return 1
	}

	return 0
}
