package api

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/edgard/postbot/internal/registry"
	"github.com/edgard/postbot/internal/service"
)

const duplicateIDDetail = "Bot with this ID already exists"

var validate = validator.New()

// registerBotRequest uses pointers so absent fields can be told apart from
// zero values.
type registerBotRequest struct {
	ID                  *int64  `json:"id"                    validate:"required"`
	Name                *string `json:"name"                  validate:"required"`
	Prompt              *string `json:"prompt"                validate:"required"`
	PostIntervalMinutes *int    `json:"post_interval_minutes" validate:"required,gt=0"`
}

func (r registerBotRequest) bot() registry.Bot {
	return registry.Bot{
		ID:                  *r.ID,
		Name:                *r.Name,
		Prompt:              *r.Prompt,
		PostIntervalMinutes: *r.PostIntervalMinutes,
	}
}

type handler struct {
	service BotService
	pinger  Pinger
	logger  *slog.Logger
}

func (h *handler) listBots(c *fiber.Ctx) error {
	return c.JSON(h.service.List())
}

func (h *handler) registerBot(c *fiber.Ctx) error {
	var req registerBotRequest
	if err := c.BodyParser(&req); err != nil {
		return unprocessable(c, fmt.Sprintf("invalid request body: %v", err))
	}
	if err := validate.Struct(req); err != nil {
		return unprocessable(c, validationDetail(err))
	}

	bot, err := h.service.Register(req.bot())
	switch {
	case errors.Is(err, service.ErrDuplicateID):
		return c.Status(fiber.StatusBadRequest).JSON(errorDetail{Detail: duplicateIDDetail})
	case errors.Is(err, service.ErrInvalidInterval):
		return unprocessable(c, err.Error())
	case err != nil:
		return err
	}

	return c.JSON(bot)
}

func (h *handler) listRuns(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return unprocessable(c, "bot id must be an integer")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return unprocessable(c, "limit must be a positive integer")
		}
	}

	runs, err := h.service.Runs(c.UserContext(), id, limit)
	if errors.Is(err, service.ErrBotNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(errorDetail{Detail: "Bot not found"})
	}
	if err != nil {
		return err
	}

	return c.JSON(runs)
}

func (h *handler) health(c *fiber.Ctx) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.UserContext()); err != nil {
			h.logger.WarnContext(c.UserContext(), "Health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func unprocessable(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(errorDetail{Detail: detail})
}

// validationDetail names the offending JSON fields.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldNames[fe.Field()]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+": field required")
		case "gt":
			msgs = append(msgs, field+": must be greater than "+fe.Param())
		default:
			msgs = append(msgs, field+": failed "+fe.Tag()+" validation")
		}
	}
	return strings.Join(msgs, "; ")
}

var jsonFieldNames = map[string]string{
	"ID":                  "id",
	"Name":                "name",
	"Prompt":              "prompt",
	"PostIntervalMinutes": "post_interval_minutes",
}
