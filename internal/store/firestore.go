package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection      = "users"
	challengesCollection = "challenges"
	daysCollection       = "days"
	templatesCollection  = "publicChallenges"
)

// FirestoreStore keeps challenges as documents under their owner:
// users/{uid}/challenges/{id}/days/{number}.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

type habitDoc struct {
	Name      string `firestore:"name"`
	Completed bool   `firestore:"completed"`
}

type challengeDoc struct {
	Name        string     `firestore:"name"`
	Description string     `firestore:"description"`
	Duration    int        `firestore:"duration"`
	CurrentDay  int        `firestore:"currentDay"`
	Tags        []string   `firestore:"tags"`
	Habits      []habitDoc `firestore:"habits"`
	State       string     `firestore:"state"`
	TemplateID  string     `firestore:"templateId,omitempty"`
	StartDate   string     `firestore:"startDate"`
	CreatedAt   time.Time  `firestore:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt"`
}

type dayDoc struct {
	Number    int        `firestore:"number"`
	Date      string     `firestore:"date"`
	Habits    []habitDoc `firestore:"habits"`
	Completed bool       `firestore:"completed"`
	CreatedAt time.Time  `firestore:"createdAt"`
	UpdatedAt time.Time  `firestore:"updatedAt"`
}

type templateDoc struct {
	AuthorID    string     `firestore:"authorId"`
	Name        string     `firestore:"name"`
	Description string     `firestore:"description"`
	Duration    int        `firestore:"duration"`
	Tags        []string   `firestore:"tags"`
	Habits      []habitDoc `firestore:"habits"`
	ImageURL    string     `firestore:"imageUrl"`
	CreatedAt   time.Time  `firestore:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt"`
}

func toHabitDocs(habits []models.Habit) []habitDoc {
	docs := make([]habitDoc, len(habits))
	for i, h := range habits {
		docs[i] = habitDoc{Name: h.Name, Completed: h.Completed}
	}
	return docs
}

func fromHabitDocs(docs []habitDoc) []models.Habit {
	habits := make([]models.Habit, len(docs))
	for i, h := range docs {
		habits[i] = models.Habit{Name: h.Name, Completed: h.Completed}
	}
	return habits
}

func (s *FirestoreStore) challenges(userID uuid.UUID) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(userID.String()).Collection(challengesCollection)
}

func (s *FirestoreStore) days(userID, challengeID uuid.UUID) *firestore.CollectionRef {
	return s.challenges(userID).Doc(challengeID.String()).Collection(daysCollection)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func mapErr(err error) error {
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) CreateChallenge(ctx context.Context, c *models.Challenge, days []models.Day) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	doc := challengeDoc{
		Name:        c.Name,
		Description: c.Description,
		Duration:    c.Duration,
		CurrentDay:  c.CurrentDay,
		Tags:        c.Tags,
		Habits:      toHabitDocs(c.Habits),
		State:       c.State,
		StartDate:   c.StartDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.TemplateID != nil {
		doc.TemplateID = c.TemplateID.String()
	}

	ref := s.challenges(c.UserID).Doc(c.ID.String())
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(ref, doc); err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		for i := range days {
			days[i].ChallengeID = c.ID
			days[i].CreatedAt, days[i].UpdatedAt = now, now
			dayRef := s.days(c.UserID, c.ID).Doc(strconv.Itoa(days[i].Number))
			if err := tx.Set(dayRef, toDayDoc(&days[i])); err != nil {
				return fmt.Errorf("create day %d: %w", days[i].Number, err)
			}
		}
		return nil
	})
}

func challengeFromSnap(userID uuid.UUID, snap *firestore.DocumentSnapshot) (*models.Challenge, error) {
	var doc challengeDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode challenge %s: %w", snap.Ref.ID, err)
	}
	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("challenge id %q: %w", snap.Ref.ID, err)
	}
	c := &models.Challenge{
		ID:          id,
		UserID:      userID,
		Name:        doc.Name,
		Description: doc.Description,
		Duration:    doc.Duration,
		CurrentDay:  doc.CurrentDay,
		Tags:        doc.Tags,
		Habits:      fromHabitDocs(doc.Habits),
		State:       doc.State,
		StartDate:   doc.StartDate,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.TemplateID != "" {
		if tid, err := uuid.Parse(doc.TemplateID); err == nil {
			c.TemplateID = &tid
		}
	}
	return c, nil
}

func (s *FirestoreStore) GetChallenge(ctx context.Context, userID, id uuid.UUID) (*models.Challenge, error) {
	snap, err := s.challenges(userID).Doc(id.String()).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return challengeFromSnap(userID, snap)
}

func (s *FirestoreStore) ListChallenges(ctx context.Context, userID uuid.UUID, state string) ([]models.Challenge, error) {
	q := s.challenges(userID).Query
	if state != "" {
		q = q.Where("state", "==", state)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	challenges := make([]models.Challenge, 0, len(snaps))
	for _, snap := range snaps {
		c, err := challengeFromSnap(userID, snap)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, *c)
	}
	// Sorted here rather than with OrderBy so the state filter needs no
	// composite index.
	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].CreatedAt.After(challenges[j].CreatedAt)
	})
	return challenges, nil
}

func (s *FirestoreStore) UpdateChallenge(ctx context.Context, userID, id uuid.UUID, u models.ChallengeUpdate) error {
	updates := []firestore.Update{{Path: "updatedAt", Value: time.Now().UTC()}}
	if u.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *u.Name})
	}
	if u.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *u.Description})
	}
	if u.Tags != nil {
		updates = append(updates, firestore.Update{Path: "tags", Value: u.Tags})
	}
	if u.Habits != nil {
		updates = append(updates, firestore.Update{Path: "habits", Value: toHabitDocs(u.Habits)})
	}
	if u.CurrentDay != nil {
		updates = append(updates, firestore.Update{Path: "currentDay", Value: *u.CurrentDay})
	}
	if u.State != nil {
		updates = append(updates, firestore.Update{Path: "state", Value: *u.State})
	}

	_, err := s.challenges(userID).Doc(id.String()).Update(ctx, updates)
	return mapErr(err)
}

func (s *FirestoreStore) DeleteChallenge(ctx context.Context, userID, id uuid.UUID) error {
	ref := s.challenges(userID).Doc(id.String())
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return mapErr(err)
		}
		daySnaps, err := tx.Documents(s.days(userID, id)).GetAll()
		if err != nil {
			return err
		}
		for _, snap := range daySnaps {
			if err := tx.Delete(snap.Ref); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
}

func toDayDoc(d *models.Day) dayDoc {
	return dayDoc{
		Number:    d.Number,
		Date:      d.Date,
		Habits:    toHabitDocs(d.Habits),
		Completed: d.Completed,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func dayFromSnap(challengeID uuid.UUID, snap *firestore.DocumentSnapshot) (*models.Day, error) {
	var doc dayDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode day %s: %w", snap.Ref.ID, err)
	}
	return &models.Day{
		ChallengeID: challengeID,
		Number:      doc.Number,
		Date:        doc.Date,
		Habits:      fromHabitDocs(doc.Habits),
		Completed:   doc.Completed,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func (s *FirestoreStore) GetDay(ctx context.Context, userID, challengeID uuid.UUID, number int) (*models.Day, error) {
	snap, err := s.days(userID, challengeID).Doc(strconv.Itoa(number)).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return dayFromSnap(challengeID, snap)
}

func (s *FirestoreStore) ListDays(ctx context.Context, userID, challengeID uuid.UUID) ([]models.Day, error) {
	if _, err := s.challenges(userID).Doc(challengeID.String()).Get(ctx); err != nil {
		return nil, mapErr(err)
	}
	snaps, err := s.days(userID, challengeID).OrderBy("number", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	days := make([]models.Day, 0, len(snaps))
	for _, snap := range snaps {
		d, err := dayFromSnap(challengeID, snap)
		if err != nil {
			return nil, err
		}
		days = append(days, *d)
	}
	return days, nil
}

func (s *FirestoreStore) SaveDay(ctx context.Context, userID uuid.UUID, day *models.Day) error {
	now := time.Now().UTC()
	if day.CreatedAt.IsZero() {
		day.CreatedAt = now
	}
	day.UpdatedAt = now

	parent := s.challenges(userID).Doc(day.ChallengeID.String())
	ref := s.days(userID, day.ChallengeID).Doc(strconv.Itoa(day.Number))
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// A day is only written under a challenge that still exists.
		if _, err := tx.Get(parent); err != nil {
			return mapErr(err)
		}
		return tx.Set(ref, toDayDoc(day))
	})
}

func templateFromSnap(snap *firestore.DocumentSnapshot) (*models.ChallengeTemplate, error) {
	var doc templateDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", snap.Ref.ID, err)
	}
	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("template id %q: %w", snap.Ref.ID, err)
	}
	author, _ := uuid.Parse(doc.AuthorID)
	return &models.ChallengeTemplate{
		ID:          id,
		AuthorID:    author,
		Name:        doc.Name,
		Description: doc.Description,
		Duration:    doc.Duration,
		Tags:        doc.Tags,
		Habits:      fromHabitDocs(doc.Habits),
		ImageURL:    doc.ImageURL,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func (s *FirestoreStore) ListTemplates(ctx context.Context) ([]models.ChallengeTemplate, error) {
	snaps, err := s.client.Collection(templatesCollection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	templates := make([]models.ChallengeTemplate, 0, len(snaps))
	for _, snap := range snaps {
		t, err := templateFromSnap(snap)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, nil
}

func (s *FirestoreStore) GetTemplate(ctx context.Context, id uuid.UUID) (*models.ChallengeTemplate, error) {
	snap, err := s.client.Collection(templatesCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return templateFromSnap(snap)
}

func (s *FirestoreStore) CreateTemplate(ctx context.Context, t *models.ChallengeTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := s.client.Collection(templatesCollection).Doc(t.ID.String()).Create(ctx, templateDoc{
		AuthorID:    t.AuthorID.String(),
		Name:        t.Name,
		Description: t.Description,
		Duration:    t.Duration,
		Tags:        t.Tags,
		Habits:      toHabitDocs(t.Habits),
		ImageURL:    t.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return err
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
