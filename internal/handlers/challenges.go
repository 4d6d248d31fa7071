package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/arnold/challenges-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validStates = map[string]bool{
	models.StateActive:    true,
	models.StatePaused:    true,
	models.StateCompleted: true,
	models.StateCancelled: true,
}

func summarize(ch models.Challenge) models.ChallengeSummary {
	return models.ChallengeSummary{Challenge: ch, Progress: ch.Progress()}
}

// today is the caller's current date in their configured timezone.
func today(userID uuid.UUID) string {
	loc := time.UTC
	if s, err := loadSettings(userID); err == nil {
		loc = s.Location()
	}
	return time.Now().In(loc).Format(models.DateLayout)
}

// createChallenge validates and stores ch, building every day up front
// when eager is set.
func createChallenge(ctx context.Context, ch *models.Challenge, eager bool) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	ch.ID = uuid.New()

	var days []models.Day
	if eager {
		days = ch.AllDays()
	}
	return Challenges.CreateChallenge(ctx, ch, days)
}

func GetChallenges(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	state := c.Query("state")
	if state != "" && !validStates[state] {
		return badRequest(c, "Invalid state filter")
	}

	challenges, err := Challenges.ListChallenges(c.UserContext(), userID, state)
	if err != nil {
		return serverError(c, "Failed to fetch challenges", err)
	}

	result := make([]models.ChallengeSummary, 0, len(challenges))
	for _, ch := range challenges {
		result = append(result, summarize(ch))
	}
	return c.JSON(result)
}

func CreateChallenge(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	startDate := req.StartDate
	if startDate == "" {
		startDate = today(userID)
	} else if _, err := time.Parse(models.DateLayout, startDate); err != nil {
		return badRequest(c, "startDate must be YYYY-MM-DD")
	}

	ch := models.Challenge{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		CurrentDay:  1,
		Tags:        req.Tags,
		Habits:      models.CleanHabits(req.Habits),
		State:       models.StateActive,
		StartDate:   startDate,
	}

	eager := EagerDays
	if req.EagerDays != nil {
		eager = *req.EagerDays
	}

	if err := createChallenge(c.UserContext(), &ch, eager); err != nil {
		if isValidation(err) {
			return badRequest(c, err.Error())
		}
		return serverError(c, "Failed to create challenge", err)
	}

	zap.L().Info("challenge created",
		zap.String("challengeId", ch.ID.String()),
		zap.Int("duration", ch.Duration),
		zap.Bool("eagerDays", eager))

	return c.Status(fiber.StatusCreated).JSON(summarize(ch))
}

func GetChallenge(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	ch, err := Challenges.GetChallenge(c.UserContext(), userID, id)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}

	days, err := Challenges.ListDays(c.UserContext(), userID, id)
	if err != nil {
		return serverError(c, "Failed to fetch days", err)
	}

	return c.JSON(models.ChallengeDetail{
		Challenge:     *ch,
		Progress:      ch.Progress(),
		CompletedDays: models.CompletedDays(days),
		Streak:        models.CurrentStreak(days, ch.CurrentDay),
	})
}

func UpdateChallenge(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	var req models.UpdateChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ch, err := Challenges.GetChallenge(c.UserContext(), userID, id)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}

	update := models.ChallengeUpdate{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if req.Habits != nil {
		update.Habits = models.CleanHabits(req.Habits)
	}

	update.Apply(ch)
	if err := ch.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := Challenges.UpdateChallenge(c.UserContext(), userID, id, update); err != nil {
		return storeError(c, err, "Challenge not found", "Failed to update challenge")
	}

	summary := summarize(*ch)
	WS.Send(userID, WSEvent{Type: EventChallengeUpdated, ChallengeID: id.String(), Data: summary})
	return c.JSON(summary)
}

func DeleteChallenge(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	if err := Challenges.DeleteChallenge(c.UserContext(), userID, id); err != nil {
		return storeError(c, err, "Challenge not found", "Failed to delete challenge")
	}

	WS.Send(userID, WSEvent{Type: EventChallengeDeleted, ChallengeID: id.String()})
	return c.JSON(fiber.Map{"success": true})
}

// AdvanceChallenge moves the challenge to its next day, completing it on
// the last one.
func AdvanceChallenge(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	ch, err := Challenges.GetChallenge(c.UserContext(), userID, id)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}

	if err := ch.Advance(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	update := models.ChallengeUpdate{CurrentDay: &ch.CurrentDay, State: &ch.State}
	if err := Challenges.UpdateChallenge(c.UserContext(), userID, id, update); err != nil {
		return storeError(c, err, "Challenge not found", "Failed to advance challenge")
	}

	day := ch.CurrentDay
	LogActivity(id, userID, models.ActivityChallengeAdvanced, &day, nil)
	if ch.State == models.StateCompleted {
		onCompleted(c.UserContext(), ch)
	}

	summary := summarize(*ch)
	WS.Send(userID, WSEvent{Type: EventChallengeUpdated, ChallengeID: id.String(), Data: summary})
	return c.JSON(summary)
}

func ChangeChallengeState(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	var req models.ChangeStateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if !validStates[req.State] {
		return badRequest(c, "State must be one of: active, paused, completed, cancelled")
	}

	ch, err := Challenges.GetChallenge(c.UserContext(), userID, id)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}

	from := ch.State
	if err := ch.Transition(req.State); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	if err := Challenges.UpdateChallenge(c.UserContext(), userID, id, models.ChallengeUpdate{State: &ch.State}); err != nil {
		return storeError(c, err, "Challenge not found", "Failed to update challenge")
	}

	LogActivity(id, userID, models.ActivityStateChanged, nil, map[string]interface{}{
		"from": from,
		"to":   ch.State,
	})
	if ch.State == models.StateCompleted {
		onCompleted(c.UserContext(), ch)
	}

	summary := summarize(*ch)
	WS.Send(userID, WSEvent{Type: EventChallengeUpdated, ChallengeID: id.String(), Data: summary})
	return c.JSON(summary)
}

func onCompleted(ctx context.Context, ch *models.Challenge) {
	LogActivity(ch.ID, ch.UserID, models.ActivityChallengeCompleted, nil, nil)
	err := services.CreateNotification(ctx, ch.UserID, models.NotificationChallengeCompleted,
		"Challenge completed!",
		fmt.Sprintf("You finished all %d days of %q.", ch.Duration, ch.Name),
		map[string]interface{}{"challengeId": ch.ID.String()},
	)
	if err != nil {
		zap.L().Warn("completion notification failed", zap.String("challengeId", ch.ID.String()), zap.Error(err))
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		models.ErrNameRequired,
		models.ErrInvalidDuration,
		models.ErrInvalidCurrentDay,
		models.ErrHabitsRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
