package handlers

import (
	"errors"

	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/images"
	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UploadProfileImage stores the caller's profile picture and records its
// URL in their settings.
func UploadProfileImage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	if Images == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Image uploads are not configured",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "No image file provided")
	}

	ext, err := images.Validate(file.Filename, file.Size)
	switch {
	case errors.Is(err, images.ErrUnsupportedType):
		return badRequest(c, "Only jpg, png, and webp images are allowed")
	case errors.Is(err, images.ErrTooLarge):
		return badRequest(c, "Image must be under 5MB")
	case err != nil:
		return badRequest(c, err.Error())
	}

	f, err := file.Open()
	if err != nil {
		return serverError(c, "Failed to read image", err)
	}
	defer f.Close()

	url, err := Images.Upload(c.UserContext(), userID, ext, f)
	if err != nil {
		return serverError(c, "Failed to save image", err)
	}

	s, err := loadSettings(userID)
	if err != nil {
		return serverError(c, "Failed to load settings", err)
	}
	if err := database.DB.Model(&models.Settings{}).
		Where("id = ?", s.ID).
		Update("profile_image_url", url).Error; err != nil {
		return serverError(c, "Failed to save settings", err)
	}

	zap.L().Info("profile image updated", zap.String("userId", userID.String()))

	return c.JSON(fiber.Map{
		"url": url,
	})
}
