// Package logger provides structured logging functionality for postbot.
// It uses Go's slog package for logging with configurable levels and formats,
// and adapts it for the HTTP server and the job scheduler.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewLogger creates a new slog Logger with the specified level and format.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	return newLogger(os.Stdout, levelStr, jsonOutput)
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Middleware creates a request logging middleware for the HTTP server.
// Requests are logged at debug level on arrival and at info level on completion.
func Middleware(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()

		logEntry := log.With(
			"method", c.Method(),
			"path", c.Path(),
			"remote_ip", c.IP(),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			logEntry = logEntry.With("request_id", rid)
		}

		logEntry.DebugContext(c.UserContext(), "Processing request")

		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		duration := time.Since(startTime)
		if status >= fiber.StatusInternalServerError {
			logEntry.ErrorContext(c.UserContext(), "Request failed", "status", status, "duration", duration, "error", err)
		} else {
			logEntry.InfoContext(c.UserContext(), "Finished request", "status", status, "duration", duration)
		}
		return err
	}
}
