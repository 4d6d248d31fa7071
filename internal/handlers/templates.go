package handlers

import (
	"time"

	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func GetTemplates(c *fiber.Ctx) error {
	templates, err := Challenges.ListTemplates(c.UserContext())
	if err != nil {
		return serverError(c, "Failed to fetch templates", err)
	}
	if templates == nil {
		templates = []models.ChallengeTemplate{}
	}
	return c.JSON(templates)
}

func GetTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid template ID")
	}

	t, err := Challenges.GetTemplate(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Template not found", "Failed to fetch template")
	}
	return c.JSON(t)
}

// PublishTemplate shares one of the caller's challenges as a public
// template. Progress is not carried over.
func PublishTemplate(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.PublishTemplateRequest
	if err := c.BodyParser(&req); err != nil || req.ChallengeID == uuid.Nil {
		return badRequest(c, "challengeId is required")
	}

	ch, err := Challenges.GetChallenge(c.UserContext(), userID, req.ChallengeID)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}

	habits := make([]models.Habit, len(ch.Habits))
	for i, h := range ch.Habits {
		habits[i] = models.Habit{Name: h.Name}
	}
	t := models.ChallengeTemplate{
		AuthorID:    userID,
		Name:        ch.Name,
		Description: ch.Description,
		Duration:    ch.Duration,
		Tags:        append([]string(nil), ch.Tags...),
		Habits:      habits,
		ImageURL:    req.ImageURL,
	}
	if err := Challenges.CreateTemplate(c.UserContext(), &t); err != nil {
		return serverError(c, "Failed to publish template", err)
	}

	zap.L().Info("template published",
		zap.String("templateId", t.ID.String()),
		zap.String("challengeId", ch.ID.String()))

	return c.Status(fiber.StatusCreated).JSON(t)
}

// StartTemplate creates a fresh challenge for the caller from a template.
func StartTemplate(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid template ID")
	}

	var req models.StartTemplateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	startDate := req.StartDate
	if startDate == "" {
		startDate = today(userID)
	} else if _, err := time.Parse(models.DateLayout, startDate); err != nil {
		return badRequest(c, "startDate must be YYYY-MM-DD")
	}

	t, err := Challenges.GetTemplate(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Template not found", "Failed to fetch template")
	}

	ch := t.Instantiate(userID, startDate)
	eager := EagerDays
	if req.EagerDays != nil {
		eager = *req.EagerDays
	}

	if err := createChallenge(c.UserContext(), &ch, eager); err != nil {
		if isValidation(err) {
			return badRequest(c, err.Error())
		}
		return serverError(c, "Failed to start challenge", err)
	}

	return c.Status(fiber.StatusCreated).JSON(summarize(ch))
}
