package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Day struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ChallengeID uuid.UUID      `json:"challengeId" gorm:"type:uuid;not null;uniqueIndex:idx_challenge_day"`
	Number      int            `json:"number" gorm:"not null;uniqueIndex:idx_challenge_day"`
	Date        string         `json:"date"`
	Habits      []Habit        `json:"habits" gorm:"serializer:json"`
	Completed   bool           `json:"completed" gorm:"default:false"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (d *Day) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// RollUp recomputes Completed: true iff every habit is completed.
func (d *Day) RollUp() bool {
	done := true
	for _, h := range d.Habits {
		if !h.Completed {
			done = false
			break
		}
	}
	d.Completed = done
	return done
}

// SetHabit records a habit's completion for this day and rolls up.
func (d *Day) SetHabit(index int, completed bool) error {
	if index < 0 || index >= len(d.Habits) {
		return ErrHabitIndex
	}
	d.Habits[index].Completed = completed
	d.RollUp()
	return nil
}

func (d *Day) CompletedHabits() int {
	n := 0
	for _, h := range d.Habits {
		if h.Completed {
			n++
		}
	}
	return n
}

func CompletedDays(days []Day) int {
	n := 0
	for _, d := range days {
		if d.Completed {
			n++
		}
	}
	return n
}

// CurrentStreak counts consecutive completed days, walking back from
// upTo. The day upTo itself does not break the streak while it is still
// in progress.
func CurrentStreak(days []Day, upTo int) int {
	byNumber := make(map[int]bool, len(days))
	for _, d := range days {
		byNumber[d.Number] = d.Completed
	}
	streak := 0
	n := upTo
	if !byNumber[n] {
		n--
	}
	for ; n >= 1; n-- {
		if !byNumber[n] {
			break
		}
		streak++
	}
	return streak
}

type ToggleHabitRequest struct {
	Completed *bool `json:"completed"`
}
