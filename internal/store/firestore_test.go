package store

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need the Firestore emulator (FIRESTORE_EMULATOR_HOST).
func newEmulatorStore(t *testing.T) *FirestoreStore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "challenges-test")
	require.NoError(t, err)
	s := NewFirestoreStore(client)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFirestoreChallengeLifecycle(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	owner := uuid.New()

	c := sampleChallenge(owner, 3)
	c.ID = uuid.New()
	require.NoError(t, s.CreateChallenge(ctx, c, c.AllDays()))

	got, err := s.GetChallenge(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, 3, got.Duration)

	days, err := s.ListDays(ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, days, 3)

	d, err := s.GetDay(ctx, owner, c.ID, 2)
	require.NoError(t, err)
	require.NoError(t, d.SetHabit(0, true))
	require.NoError(t, d.SetHabit(1, true))
	require.NoError(t, s.SaveDay(ctx, owner, d))

	d, err = s.GetDay(ctx, owner, c.ID, 2)
	require.NoError(t, err)
	assert.True(t, d.Completed)

	next := 2
	require.NoError(t, s.UpdateChallenge(ctx, owner, c.ID, models.ChallengeUpdate{CurrentDay: &next}))
	got, err = s.GetChallenge(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentDay)

	require.NoError(t, s.DeleteChallenge(ctx, owner, c.ID))
	_, err = s.GetChallenge(ctx, owner, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDay(ctx, owner, c.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFirestoreUpdateMissing(t *testing.T) {
	s := newEmulatorStore(t)
	day := 2
	err := s.UpdateChallenge(context.Background(), uuid.New(), uuid.New(), models.ChallengeUpdate{CurrentDay: &day})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFirestoreSaveDayNeedsChallenge(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	owner := uuid.New()

	c := sampleChallenge(owner, 2)
	c.ID = uuid.New()
	require.NoError(t, s.CreateChallenge(ctx, c, nil))
	require.NoError(t, s.DeleteChallenge(ctx, owner, c.ID))

	orphan := c.NewDay(1)
	assert.ErrorIs(t, s.SaveDay(ctx, owner, &orphan), ErrNotFound)

	_, err := s.GetDay(ctx, owner, c.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	// another user cannot write under the owner's challenge either
	c2 := sampleChallenge(owner, 2)
	c2.ID = uuid.New()
	require.NoError(t, s.CreateChallenge(ctx, c2, nil))
	d := c2.NewDay(1)
	assert.ErrorIs(t, s.SaveDay(ctx, uuid.New(), &d), ErrNotFound)
}
