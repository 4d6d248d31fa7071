// Package reminders fires each user's daily reminder at their preferred
// wall-clock time. Every user has at most one pending fire time; after it
// fires it is rescheduled to the next occurrence.
package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/arnold/challenges-api/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentSends bounds the fan-out when many reminders fall due on
// the same tick.
const maxConcurrentSends = 8

// NextOccurrence returns the first instant strictly after now at
// hour:minute in loc.
func NextOccurrence(now time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Notifier delivers a reminder to a user.
type Notifier interface {
	Remind(ctx context.Context, userID uuid.UUID) error
}

// Source lists the settings of every user with reminders turned on.
type Source interface {
	EnabledSettings(ctx context.Context) ([]models.Settings, error)
}

type entry struct {
	next   time.Time
	hour   int
	minute int
	loc    *time.Location
}

type Scheduler struct {
	notifier Notifier
	source   Source
	tick     time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[uuid.UUID]entry
}

func NewScheduler(notifier Notifier, source Source, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = 30 * time.Second
	}
	return &Scheduler{
		notifier: notifier,
		source:   source,
		tick:     tick,
		now:      time.Now,
		entries:  make(map[uuid.UUID]entry),
	}
}

// Schedule replaces userID's pending reminder. Disabled settings cancel it.
func (s *Scheduler) Schedule(userID uuid.UUID, settings models.Settings) {
	if !settings.NotificationsEnabled {
		s.Cancel(userID)
		return
	}
	loc := settings.Location()
	e := entry{
		hour:   settings.ReminderHour,
		minute: settings.ReminderMinute,
		loc:    loc,
		next:   NextOccurrence(s.now(), settings.ReminderHour, settings.ReminderMinute, loc),
	}

	s.mu.Lock()
	s.entries[userID] = e
	s.mu.Unlock()

	zap.L().Debug("reminder scheduled",
		zap.String("userId", userID.String()),
		zap.Time("next", e.next))
}

func (s *Scheduler) Cancel(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
}

// Next reports the pending fire time for userID.
func (s *Scheduler) Next(userID uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	return e.next, ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reload rebuilds the schedule from the source, dropping entries for users
// that turned reminders off.
func (s *Scheduler) Reload(ctx context.Context) error {
	settings, err := s.source.EnabledSettings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = make(map[uuid.UUID]entry, len(settings))
	s.mu.Unlock()

	for _, st := range settings {
		s.Schedule(st.UserID, st)
	}
	zap.L().Info("reminders loaded", zap.Int("count", len(settings)))
	return nil
}

// Start reloads the schedule and runs the firing loop until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.FireDue(ctx)
		}
	}
}

// FireDue sends every reminder whose time has come and moves each of them
// to its next occurrence. It returns how many were due.
func (s *Scheduler) FireDue(ctx context.Context) int {
	var due []uuid.UUID
	s.mu.Lock()
	now := s.now()
	for id, e := range s.entries {
		if e.next.After(now) {
			continue
		}
		due = append(due, id)
		e.next = NextOccurrence(now, e.hour, e.minute, e.loc)
		s.entries[id] = e
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)
	for _, id := range due {
		id := id
		g.Go(func() error {
			if err := s.notifier.Remind(gctx, id); err != nil {
				zap.L().Warn("reminder failed",
					zap.String("userId", id.String()),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return len(due)
}
