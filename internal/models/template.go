package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeTemplate is a public challenge anyone can start a copy of.
type ChallengeTemplate struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	AuthorID    uuid.UUID      `json:"authorId" gorm:"type:uuid;index"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Duration    int            `json:"duration" gorm:"not null"`
	Tags        []string       `json:"tags" gorm:"serializer:json"`
	Habits      []Habit        `json:"habits" gorm:"serializer:json"`
	ImageURL    string         `json:"imageUrl"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *ChallengeTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Instantiate creates a fresh active challenge for userID from the template.
func (t *ChallengeTemplate) Instantiate(userID uuid.UUID, startDate string) Challenge {
	habits := make([]Habit, len(t.Habits))
	for i, h := range t.Habits {
		habits[i] = Habit{Name: h.Name}
	}
	tags := append([]string(nil), t.Tags...)
	id := t.ID
	return Challenge{
		UserID:      userID,
		Name:        t.Name,
		Description: t.Description,
		Duration:    t.Duration,
		CurrentDay:  1,
		Tags:        tags,
		Habits:      habits,
		State:       StateActive,
		TemplateID:  &id,
		StartDate:   startDate,
	}
}

type PublishTemplateRequest struct {
	ChallengeID uuid.UUID `json:"challengeId"`
	ImageURL    string    `json:"imageUrl"`
}

type StartTemplateRequest struct {
	StartDate string `json:"startDate"`
	EagerDays *bool  `json:"eagerDays"`
}
