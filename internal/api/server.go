// Package api exposes the bot registry over HTTP using fiber.
package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/edgard/postbot/internal/config"
	"github.com/edgard/postbot/internal/database"
	"github.com/edgard/postbot/internal/logger"
	"github.com/edgard/postbot/internal/registry"
)

// BotService is the application logic behind the bot routes.
type BotService interface {
	List() []registry.Bot
	Register(bot registry.Bot) (registry.Bot, error)
	Runs(ctx context.Context, id int64, limit int) ([]database.PostRun, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds the fiber application with all routes registered.
// pinger may be nil, in which case /healthz always reports ok.
func NewServer(cfg config.ServerConfig, svc BotService, pinger Pinger, log *slog.Logger) *fiber.App {
	log = log.With("component", "http")

	app := fiber.New(fiber.Config{
		AppName:               "postbot",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(requestid.New())
	app.Use(fiberrecover.New())
	app.Use(logger.Middleware(log))

	h := &handler{service: svc, pinger: pinger, logger: log}
	app.Get("/bots", h.listBots)
	app.Post("/bots", h.registerBot)
	app.Get("/bots/:id/runs", h.listRuns)
	app.Get("/healthz", h.health)

	return app
}

// errorDetail is the body of every non-2xx response.
type errorDetail struct {
	Detail string `json:"detail"`
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		detail := "Internal Server Error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			detail = fiberErr.Message
		} else {
			log.ErrorContext(c.UserContext(), "Unhandled request error", "path", c.Path(), "error", err)
		}

		return c.Status(code).JSON(errorDetail{Detail: detail})
	}
}
