package models

import (
	"errors"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

const (
	DefaultLanguage       = "en"
	DefaultTimezone       = "UTC"
	DefaultReminderHour   = 9
	DefaultReminderMinute = 0
)

var (
	ErrInvalidReminderTime = errors.New("reminder time must be a valid hour (0-23) and minute (0-59)")
	ErrInvalidTimezone     = errors.New("unknown timezone")
	ErrInvalidLanguage     = errors.New("invalid language code")
)

// Settings holds a user's preferences, kept apart from challenge data.
type Settings struct {
	ID                   uuid.UUID       `json:"-" gorm:"type:uuid;primaryKey"`
	UserID               uuid.UUID       `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	ReminderHour         int             `json:"reminderHour"`
	ReminderMinute       int             `json:"reminderMinute"`
	Timezone             string          `json:"timezone" gorm:"default:'UTC'"`
	Language             string          `json:"language" gorm:"default:'en'"`
	ProfileImageURL      string          `json:"profileImageUrl"`
	Flags                map[string]bool `json:"flags" gorm:"serializer:json"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func (s *Settings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func DefaultSettings(userID uuid.UUID) Settings {
	return Settings{
		UserID:         userID,
		ReminderHour:   DefaultReminderHour,
		ReminderMinute: DefaultReminderMinute,
		Timezone:       DefaultTimezone,
		Language:       DefaultLanguage,
		Flags:          map[string]bool{},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *Settings) Validate() error {
	if s.ReminderHour < 0 || s.ReminderHour > 23 || s.ReminderMinute < 0 || s.ReminderMinute > 59 {
		return ErrInvalidReminderTime
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return ErrInvalidTimezone
	}
	if _, err := language.Parse(s.Language); err != nil {
		return ErrInvalidLanguage
	}
	return nil
}

type UpdateSettingsRequest struct {
	NotificationsEnabled *bool           `json:"notificationsEnabled"`
	ReminderHour         *int            `json:"reminderHour"`
	ReminderMinute       *int            `json:"reminderMinute"`
	Timezone             *string         `json:"timezone"`
	Language             *string         `json:"language"`
	Flags                map[string]bool `json:"flags"`
}

func (r UpdateSettingsRequest) Apply(s *Settings) {
	if r.NotificationsEnabled != nil {
		s.NotificationsEnabled = *r.NotificationsEnabled
	}
	if r.ReminderHour != nil {
		s.ReminderHour = *r.ReminderHour
	}
	if r.ReminderMinute != nil {
		s.ReminderMinute = *r.ReminderMinute
	}
	if r.Timezone != nil {
		s.Timezone = *r.Timezone
	}
	if r.Language != nil {
		s.Language = *r.Language
	}
	if r.Flags != nil {
		if s.Flags == nil {
			s.Flags = map[string]bool{}
		}
		for k, v := range r.Flags {
			s.Flags[k] = v
		}
	}
}
