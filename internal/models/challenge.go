package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StateActive    = "active"
	StatePaused    = "paused"
	StateCompleted = "completed"
	StateCancelled = "cancelled"
)

// MaxDuration caps how long a single challenge may run.
const MaxDuration = 365

const DateLayout = "2006-01-02"

var (
	ErrInvalidDuration   = errors.New("duration must be between 1 and 365 days")
	ErrInvalidCurrentDay = errors.New("current day out of range")
	ErrNameRequired      = errors.New("name is required")
	ErrHabitsRequired    = errors.New("at least one habit is required")
	ErrNotActive         = errors.New("challenge is not active")
	ErrBadTransition     = errors.New("state transition not allowed")
	ErrHabitIndex        = errors.New("habit index out of range")
)

// Habit is both the template stored on a challenge and the per-day copy.
type Habit struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type Challenge struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Duration    int            `json:"duration" gorm:"not null"`
	CurrentDay  int            `json:"currentDay" gorm:"not null;default:1"`
	Tags        []string       `json:"tags" gorm:"serializer:json"`
	Habits      []Habit        `json:"habits" gorm:"serializer:json"`
	State       string         `json:"state" gorm:"not null;default:'active';index"`
	TemplateID  *uuid.UUID     `json:"templateId" gorm:"type:uuid"`
	StartDate   string         `json:"startDate"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Validate checks the invariants every stored challenge must hold.
func (c *Challenge) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if c.Duration < 1 || c.Duration > MaxDuration {
		return ErrInvalidDuration
	}
	if c.CurrentDay < 1 || c.CurrentDay > c.Duration {
		return ErrInvalidCurrentDay
	}
	if len(c.Habits) == 0 {
		return ErrHabitsRequired
	}
	for i, h := range c.Habits {
		if strings.TrimSpace(h.Name) == "" {
			return fmt.Errorf("habit %d: %w", i, ErrNameRequired)
		}
	}
	return nil
}

// Progress is floor(100 * currentDay / duration).
func (c *Challenge) Progress() int {
	return ProgressPercent(c.CurrentDay, c.Duration)
}

func ProgressPercent(currentDay, duration int) int {
	if duration <= 0 || currentDay <= 0 {
		return 0
	}
	if currentDay >= duration {
		return 100
	}
	return 100 * currentDay / duration
}

// Advance moves the challenge to its next day. Reaching the last day
// completes the challenge.
func (c *Challenge) Advance() error {
	if c.State != StateActive {
		return ErrNotActive
	}
	if c.CurrentDay < c.Duration {
		c.CurrentDay++
	}
	if c.CurrentDay >= c.Duration {
		c.CurrentDay = c.Duration
		c.State = StateCompleted
	}
	return nil
}

// AcceptsHabitUpdates reports whether days of a challenge in state may
// still have habits recorded. Paused and cancelled challenges are frozen.
func AcceptsHabitUpdates(state string) bool {
	return state == StateActive || state == StateCompleted
}

var transitions = map[string][]string{
	StateActive: {StatePaused, StateCancelled, StateCompleted},
	StatePaused: {StateActive, StateCancelled},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (c *Challenge) Transition(to string) error {
	if !CanTransition(c.State, to) {
		return fmt.Errorf("%s -> %s: %w", c.State, to, ErrBadTransition)
	}
	c.State = to
	return nil
}

// DayDate returns the calendar date of day number n, or "" when the
// challenge has no parseable start date.
func (c *Challenge) DayDate(n int) string {
	start, err := time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return ""
	}
	return start.AddDate(0, 0, n-1).Format(DateLayout)
}

// NewDay builds day n with fresh copies of the challenge's habits.
func (c *Challenge) NewDay(n int) Day {
	habits := make([]Habit, len(c.Habits))
	for i, h := range c.Habits {
		habits[i] = Habit{Name: h.Name}
	}
	d := Day{
		ChallengeID: c.ID,
		Number:      n,
		Date:        c.DayDate(n),
		Habits:      habits,
	}
	d.RollUp()
	return d
}

// AllDays builds every day of the challenge for eager creation.
func (c *Challenge) AllDays() []Day {
	days := make([]Day, 0, c.Duration)
	for n := 1; n <= c.Duration; n++ {
		days = append(days, c.NewDay(n))
	}
	return days
}

func CleanHabits(names []string) []Habit {
	habits := make([]Habit, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		habits = append(habits, Habit{Name: n})
	}
	return habits
}

// ChallengeUpdate carries a field-level update; nil fields are left alone.
type ChallengeUpdate struct {
	Name        *string
	Description *string
	Tags        []string
	Habits      []Habit
	CurrentDay  *int
	State       *string
}

func (u ChallengeUpdate) Apply(c *Challenge) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Tags != nil {
		c.Tags = u.Tags
	}
	if u.Habits != nil {
		c.Habits = u.Habits
	}
	if u.CurrentDay != nil {
		c.CurrentDay = *u.CurrentDay
	}
	if u.State != nil {
		c.State = *u.State
	}
}

// Challenge DTOs
type CreateChallengeRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Duration    int      `json:"duration"`
	Tags        []string `json:"tags"`
	Habits      []string `json:"habits"`
	StartDate   string   `json:"startDate"`
	EagerDays   *bool    `json:"eagerDays"`
}

type UpdateChallengeRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Habits      []string `json:"habits"`
}

type ChangeStateRequest struct {
	State string `json:"state"`
}

type ChallengeSummary struct {
	Challenge
	Progress int `json:"progress"`
}

type ChallengeDetail struct {
	Challenge
	Progress      int `json:"progress"`
	CompletedDays int `json:"completedDays"`
	Streak        int `json:"streak"`
}
