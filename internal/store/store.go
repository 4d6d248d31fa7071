// Package store persists challenges, their days and the public templates.
// Two backends exist: a relational one on gorm and a document one on
// Firestore laid out as users/{uid}/challenges/{id}/days/{number}.
package store

import (
	"context"
	"errors"

	"github.com/arnold/challenges-api/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	// CreateChallenge stores c and, atomically with it, any eagerly built days.
	CreateChallenge(ctx context.Context, c *models.Challenge, days []models.Day) error
	GetChallenge(ctx context.Context, userID, id uuid.UUID) (*models.Challenge, error)
	// ListChallenges returns the user's challenges newest first. An empty
	// state returns every state.
	ListChallenges(ctx context.Context, userID uuid.UUID, state string) ([]models.Challenge, error)
	UpdateChallenge(ctx context.Context, userID, id uuid.UUID, u models.ChallengeUpdate) error
	DeleteChallenge(ctx context.Context, userID, id uuid.UUID) error

	GetDay(ctx context.Context, userID, challengeID uuid.UUID, number int) (*models.Day, error)
	ListDays(ctx context.Context, userID, challengeID uuid.UUID) ([]models.Day, error)
	SaveDay(ctx context.Context, userID uuid.UUID, day *models.Day) error

	ListTemplates(ctx context.Context) ([]models.ChallengeTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.ChallengeTemplate, error)
	CreateTemplate(ctx context.Context, t *models.ChallengeTemplate) error

	Close() error
}

// GetOrCreateDay returns day number n, creating it from the challenge's
// habit templates when it was never recorded.
func GetOrCreateDay(ctx context.Context, s Store, c *models.Challenge, n int) (*models.Day, error) {
	day, err := s.GetDay(ctx, c.UserID, c.ID, n)
	if err == nil {
		return day, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	fresh := c.NewDay(n)
	if err := s.SaveDay(ctx, c.UserID, &fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}
