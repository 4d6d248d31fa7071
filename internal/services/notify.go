package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/arnold/challenges-api/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateNotification stores an in-app notification and pushes it to the
// user's device when push is configured.
func CreateNotification(ctx context.Context, userID uuid.UUID, notifType, title, body string, metadata map[string]interface{}) error {
	notif := models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}

	var pushData map[string]string
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			notif.Metadata = &s
		}
		// Convert metadata to string map for push payload
		pushData = make(map[string]string)
		for k, v := range metadata {
			pushData[k] = fmt.Sprintf("%v", v)
		}
		pushData["type"] = notifType
	}

	if err := database.DB.WithContext(ctx).Create(&notif).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	Push.SendToUser(ctx, userID, title, body, pushData)
	return nil
}

// ReminderNotifier delivers the daily reminder for users with at least one
// active challenge.
type ReminderNotifier struct {
	Store store.Store
}

func (r *ReminderNotifier) Remind(ctx context.Context, userID uuid.UUID) error {
	active, err := r.Store.ListChallenges(ctx, userID, models.StateActive)
	if err != nil {
		return fmt.Errorf("list active challenges: %w", err)
	}
	if len(active) == 0 {
		zap.L().Debug("reminder skipped, no active challenges", zap.String("userId", userID.String()))
		return nil
	}

	body := fmt.Sprintf("%q is waiting for today's habits.", active[0].Name)
	if len(active) > 1 {
		body = fmt.Sprintf("%d challenges are waiting for today's habits.", len(active))
	}
	return CreateNotification(ctx, userID, models.NotificationReminder, "Time for your habits", body,
		map[string]interface{}{"challengeId": active[0].ID.String(), "day": active[0].CurrentDay})
}

// SettingsSource reads reminder settings from the relational database.
type SettingsSource struct{}

func (SettingsSource) EnabledSettings(ctx context.Context) ([]models.Settings, error) {
	var settings []models.Settings
	if err := database.DB.WithContext(ctx).
		Where("notifications_enabled = ?", true).
		Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
