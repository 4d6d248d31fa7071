package handlers

import (
	"encoding/json"

	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetChallengeActivity returns paginated activity for a challenge
func GetChallengeActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	challengeID, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	if _, err := Challenges.GetChallenge(c.UserContext(), userID, challengeID); err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}

	page, limit, offset := pagination(c)

	var activities []models.Activity
	if err := database.DB.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error; err != nil {
		return serverError(c, "Failed to fetch activity", err)
	}

	var total int64
	database.DB.Model(&models.Activity{}).Where("challenge_id = ? AND user_id = ?", challengeID, userID).Count(&total)

	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

// LogActivity is a helper to create activity entries from other handlers
func LogActivity(challengeID, userID uuid.UUID, actionType string, dayNumber *int, metadata map[string]interface{}) {
	activity := models.Activity{
		ChallengeID: challengeID,
		UserID:      userID,
		ActionType:  actionType,
		DayNumber:   dayNumber,
	}

	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			activity.Metadata = &s
		}
	}

	if err := database.DB.Create(&activity).Error; err != nil {
		zap.L().Warn("activity not recorded",
			zap.String("challengeId", challengeID.String()),
			zap.String("action", actionType),
			zap.Error(err))
	}
}
