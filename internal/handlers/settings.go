package handlers

import (
	"errors"

	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// loadSettings returns the user's settings, creating the defaults on first
// access.
func loadSettings(userID uuid.UUID) (*models.Settings, error) {
	var s models.Settings
	err := database.DB.Where("user_id = ?", userID).First(&s).Error
	if err == nil {
		if s.Flags == nil {
			s.Flags = map[string]bool{}
		}
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	s = models.DefaultSettings(userID)
	if err := database.DB.Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func GetSettings(c *fiber.Ctx) error {
	s, err := loadSettings(middleware.GetUserID(c))
	if err != nil {
		return serverError(c, "Failed to load settings", err)
	}
	return c.JSON(s)
}

// UpdateSettings applies a partial update and reschedules the daily
// reminder to match.
func UpdateSettings(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	s, err := loadSettings(userID)
	if err != nil {
		return serverError(c, "Failed to load settings", err)
	}

	req.Apply(s)
	if err := s.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := database.DB.Save(s).Error; err != nil {
		return serverError(c, "Failed to save settings", err)
	}

	if Reminders != nil {
		Reminders.Schedule(userID, *s)
	}

	return c.JSON(s)
}
