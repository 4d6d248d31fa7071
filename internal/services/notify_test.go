package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/arnold/challenges-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	database.DB = db
	require.NoError(t, database.Migrate(true))
	Push = &PushService{}
}

func TestReminderNotifierSkipsWithoutActiveChallenges(t *testing.T) {
	setupDB(t)
	n := &ReminderNotifier{Store: store.NewGormStore(database.DB)}
	userID := uuid.New()

	require.NoError(t, n.Remind(context.Background(), userID))

	var count int64
	database.DB.Model(&models.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestReminderNotifierCreatesNotification(t *testing.T) {
	setupDB(t)
	s := store.NewGormStore(database.DB)
	n := &ReminderNotifier{Store: s}
	userID := uuid.New()

	c := &models.Challenge{
		UserID:     userID,
		Name:       "Cold showers",
		Duration:   14,
		CurrentDay: 3,
		State:      models.StateActive,
		Habits:     []models.Habit{{Name: "shower"}},
	}
	require.NoError(t, s.CreateChallenge(context.Background(), c, nil))

	require.NoError(t, n.Remind(context.Background(), userID))

	var notifs []models.Notification
	database.DB.Where("user_id = ?", userID).Find(&notifs)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationReminder, notifs[0].Type)
	assert.Contains(t, notifs[0].Body, "Cold showers")
	require.NotNil(t, notifs[0].Metadata)
	assert.Contains(t, *notifs[0].Metadata, c.ID.String())
}

func TestSettingsSourceOnlyEnabled(t *testing.T) {
	setupDB(t)
	on := models.DefaultSettings(uuid.New())
	on.NotificationsEnabled = true
	off := models.DefaultSettings(uuid.New())
	require.NoError(t, database.DB.Create(&on).Error)
	require.NoError(t, database.DB.Create(&off).Error)

	settings, err := SettingsSource{}.EnabledSettings(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, on.UserID, settings[0].UserID)
}
