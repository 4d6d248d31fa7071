package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arnold/challenges-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (f *fakeNotifier) Remind(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSource struct {
	settings []models.Settings
	err      error
}

func (f *fakeSource) EnabledSettings(ctx context.Context) ([]models.Settings, error) {
	return f.settings, f.err
}

func enabled(userID uuid.UUID, hour, minute int) models.Settings {
	s := models.DefaultSettings(userID)
	s.NotificationsEnabled = true
	s.ReminderHour = hour
	s.ReminderMinute = minute
	return s
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), NextOccurrence(now, 9, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), NextOccurrence(now, 8, 0, time.UTC))
	// Exactly now is not "after now".
	assert.Equal(t, time.Date(2026, 3, 11, 8, 30, 0, 0, time.UTC), NextOccurrence(now, 8, 30, time.UTC))
	// Month rollover.
	end := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC), NextOccurrence(end, 7, 0, nil))
}

func TestNextOccurrenceInTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:00 UTC is 08:00 the next morning in Tokyo.
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	next := NextOccurrence(now, 9, 0, tokyo)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, tokyo), next)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), next.UTC())
}

func TestScheduleAndCancel(t *testing.T) {
	s := NewScheduler(&fakeNotifier{}, &fakeSource{}, time.Second)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }

	id := uuid.New()
	s.Schedule(id, enabled(id, 20, 15))
	next, ok := s.Next(id)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 10, 20, 15, 0, 0, time.UTC), next)

	off := enabled(id, 20, 15)
	off.NotificationsEnabled = false
	s.Schedule(id, off)
	_, ok = s.Next(id)
	assert.False(t, ok)

	s.Schedule(id, enabled(id, 7, 0))
	s.Cancel(id)
	assert.Equal(t, 0, s.Len())
}

func TestFireDueReschedules(t *testing.T) {
	notifier := &fakeNotifier{}
	s := NewScheduler(notifier, &fakeSource{}, time.Second)
	clock := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	early, late := uuid.New(), uuid.New()
	s.Schedule(early, enabled(early, 9, 0))
	s.Schedule(late, enabled(late, 21, 0))

	assert.Equal(t, 0, s.FireDue(context.Background()))

	clock = time.Date(2026, 3, 10, 9, 0, 30, 0, time.UTC)
	assert.Equal(t, 1, s.FireDue(context.Background()))
	assert.Equal(t, []uuid.UUID{early}, notifier.calls)

	next, ok := s.Next(early)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), next)

	// Same tick again fires nothing.
	assert.Equal(t, 0, s.FireDue(context.Background()))
}

func TestFireDueKeepsScheduleOnSendError(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("fcm down")}
	s := NewScheduler(notifier, &fakeSource{}, time.Second)
	clock := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	id := uuid.New()
	s.Schedule(id, enabled(id, 8, 1))
	clock = clock.Add(2 * time.Minute)

	assert.Equal(t, 1, s.FireDue(context.Background()))
	_, ok := s.Next(id)
	assert.True(t, ok)
}

func TestReloadReplacesEntries(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	source := &fakeSource{settings: []models.Settings{enabled(a, 9, 0)}}
	s := NewScheduler(&fakeNotifier{}, source, time.Second)

	s.Schedule(b, enabled(b, 10, 0))
	require.NoError(t, s.Reload(context.Background()))

	_, okA := s.Next(a)
	_, okB := s.Next(b)
	assert.True(t, okA)
	assert.False(t, okB)

	source.err = errors.New("db gone")
	assert.Error(t, s.Reload(context.Background()))
}

func TestStartFiresOnTick(t *testing.T) {
	notifier := &fakeNotifier{}
	id := uuid.New()
	s := NewScheduler(notifier, &fakeSource{settings: []models.Settings{enabled(id, 9, 0)}}, 10*time.Millisecond)

	// Freeze the clock a minute past the reminder so the first tick fires.
	base := NextOccurrence(time.Now(), 9, 0, time.UTC)
	s.now = func() time.Time { return base.Add(-time.Minute) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, 5*time.Millisecond)
	s.mu.Lock()
	s.now = func() time.Time { return base.Add(time.Minute) }
	s.mu.Unlock()

	require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
