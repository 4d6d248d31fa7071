package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnold/challenges-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore keeps challenges in the relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateChallenge(ctx context.Context, c *models.Challenge, days []models.Day) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		if len(days) == 0 {
			return nil
		}
		for i := range days {
			days[i].ChallengeID = c.ID
		}
		if err := tx.CreateInBatches(&days, 100).Error; err != nil {
			return fmt.Errorf("create days: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetChallenge(ctx context.Context, userID, id uuid.UUID) (*models.Challenge, error) {
	var c models.Challenge
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *GormStore) ListChallenges(ctx context.Context, userID uuid.UUID, state string) ([]models.Challenge, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if state != "" {
		q = q.Where("state = ?", state)
	}
	var challenges []models.Challenge
	if err := q.Order("created_at DESC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

func (s *GormStore) UpdateChallenge(ctx context.Context, userID, id uuid.UUID, u models.ChallengeUpdate) error {
	var c models.Challenge
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		return notFound(err)
	}

	// Only the fields carried by the update are written.
	fields := []string{"updated_at"}
	if u.Name != nil {
		fields = append(fields, "name")
	}
	if u.Description != nil {
		fields = append(fields, "description")
	}
	if u.Tags != nil {
		fields = append(fields, "tags")
	}
	if u.Habits != nil {
		fields = append(fields, "habits")
	}
	if u.CurrentDay != nil {
		fields = append(fields, "current_day")
	}
	if u.State != nil {
		fields = append(fields, "state")
	}
	u.Apply(&c)

	return s.db.WithContext(ctx).Model(&c).Select(fields).Updates(&c).Error
}

func (s *GormStore) DeleteChallenge(ctx context.Context, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Challenge{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("challenge_id = ?", id).Delete(&models.Day{}).Error
	})
}

// owns guards day access the way the document hierarchy does: a day is
// only reachable through its owner's challenge.
func (s *GormStore) owns(ctx context.Context, userID, challengeID uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ? AND user_id = ?", challengeID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetDay(ctx context.Context, userID, challengeID uuid.UUID, number int) (*models.Day, error) {
	if err := s.owns(ctx, userID, challengeID); err != nil {
		return nil, err
	}
	var d models.Day
	if err := s.db.WithContext(ctx).
		Where("challenge_id = ? AND number = ?", challengeID, number).
		First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *GormStore) ListDays(ctx context.Context, userID, challengeID uuid.UUID) ([]models.Day, error) {
	if err := s.owns(ctx, userID, challengeID); err != nil {
		return nil, err
	}
	var days []models.Day
	if err := s.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("number ASC").
		Find(&days).Error; err != nil {
		return nil, err
	}
	return days, nil
}

func (s *GormStore) SaveDay(ctx context.Context, userID uuid.UUID, day *models.Day) error {
	if err := s.owns(ctx, userID, day.ChallengeID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Day
		err := tx.Where("challenge_id = ? AND number = ?", day.ChallengeID, day.Number).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(day).Error
		}
		if err != nil {
			return err
		}
		day.ID = existing.ID
		day.CreatedAt = existing.CreatedAt
		return tx.Save(day).Error
	})
}

func (s *GormStore) ListTemplates(ctx context.Context) ([]models.ChallengeTemplate, error) {
	var templates []models.ChallengeTemplate
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *GormStore) GetTemplate(ctx context.Context, id uuid.UUID) (*models.ChallengeTemplate, error) {
	var t models.ChallengeTemplate
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *GormStore) CreateTemplate(ctx context.Context, t *models.ChallengeTemplate) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// Close is a no-op; the gorm handle is shared with the rest of the app.
func (s *GormStore) Close() error {
	return nil
}
