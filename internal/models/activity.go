package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityHabitCompleted     = "habit_completed"
	ActivityHabitUncompleted   = "habit_uncompleted"
	ActivityDayCompleted       = "day_completed"
	ActivityChallengeAdvanced  = "challenge_advanced"
	ActivityChallengeCompleted = "challenge_completed"
	ActivityStateChanged       = "state_changed"
)

type Activity struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ChallengeID uuid.UUID      `json:"challengeId" gorm:"type:uuid;index;not null"`
	UserID      uuid.UUID      `json:"userId" gorm:"type:uuid;not null"`
	ActionType  string         `json:"actionType" gorm:"not null"`
	DayNumber   *int           `json:"dayNumber"`
	Metadata    *string        `json:"metadata"` // JSON string for extra context
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
