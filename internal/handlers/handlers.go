package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/arnold/challenges-api/internal/images"
	"github.com/arnold/challenges-api/internal/reminders"
	"github.com/arnold/challenges-api/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Wired once at startup by routes.Setup.
var (
	Challenges      store.Store
	Reminders       *reminders.Scheduler
	Images          images.Uploader
	EagerDays       bool
	GoogleClientIDs []string
)

// ParseClientIDs splits a comma-separated GOOGLE_CLIENT_IDS value.
func ParseClientIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func serverError(c *fiber.Ctx, msg string, err error) error {
	zap.L().Error(msg, zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}

// storeError maps a store failure to a response: misses become 404.
func storeError(c *fiber.Ctx, err error, missing, failed string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(c, missing)
	}
	return serverError(c, failed, err)
}

func challengeParam(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func pagination(c *fiber.Ctx) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}
