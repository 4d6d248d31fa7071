package handlers

import (
	"errors"

	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/arnold/challenges-api/internal/store"
	"github.com/gofiber/fiber/v2"
)

func GetDays(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	days, err := Challenges.ListDays(c.UserContext(), userID, id)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch days")
	}
	if days == nil {
		days = []models.Day{}
	}
	return c.JSON(days)
}

// GetToday returns the day the challenge is currently on, creating it
// when the challenge builds its days lazily.
func GetToday(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}

	ch, err := Challenges.GetChallenge(c.UserContext(), userID, id)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}

	day, err := store.GetOrCreateDay(c.UserContext(), Challenges, ch, ch.CurrentDay)
	if err != nil {
		return serverError(c, "Failed to fetch day", err)
	}
	return c.JSON(day)
}

func GetDay(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}
	number, err := c.ParamsInt("number")
	if err != nil || number < 1 {
		return badRequest(c, "Invalid day number")
	}

	day, err := Challenges.GetDay(c.UserContext(), userID, id, number)
	if err != nil {
		return storeError(c, err, "Day not found", "Failed to fetch day")
	}
	return c.JSON(day)
}

// ToggleHabit flips one habit of a day, or sets it when the body carries
// {"completed": bool}, then rolls the day up.
func ToggleHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := challengeParam(c)
	if !ok {
		return badRequest(c, "Invalid challenge ID")
	}
	number, err := c.ParamsInt("number")
	if err != nil || number < 1 {
		return badRequest(c, "Invalid day number")
	}
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "Invalid habit index")
	}

	var req models.ToggleHabitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	ch, err := Challenges.GetChallenge(c.UserContext(), userID, id)
	if err != nil {
		return storeError(c, err, "Challenge not found", "Failed to fetch challenge")
	}
	// Advancing onto the last day completes the challenge, so completed
	// challenges still accept their days.
	if !models.AcceptsHabitUpdates(ch.State) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": models.ErrNotActive.Error()})
	}
	if number > ch.CurrentDay {
		return badRequest(c, "Day has not started yet")
	}

	day, err := store.GetOrCreateDay(c.UserContext(), Challenges, ch, number)
	if err != nil {
		return serverError(c, "Failed to fetch day", err)
	}

	if index < 0 || index >= len(day.Habits) {
		return badRequest(c, models.ErrHabitIndex.Error())
	}
	completed := !day.Habits[index].Completed
	if req.Completed != nil {
		completed = *req.Completed
	}

	wasCompleted := day.Completed
	if err := day.SetHabit(index, completed); err != nil {
		return badRequest(c, err.Error())
	}

	if err := Challenges.SaveDay(c.UserContext(), userID, day); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(c, "Challenge not found")
		}
		return serverError(c, "Failed to save day", err)
	}

	action := models.ActivityHabitUncompleted
	if completed {
		action = models.ActivityHabitCompleted
	}
	LogActivity(id, userID, action, &number, map[string]interface{}{
		"habit":           day.Habits[index].Name,
		"index":           index,
		"completedHabits": day.CompletedHabits(),
	})
	if day.Completed && !wasCompleted {
		LogActivity(id, userID, models.ActivityDayCompleted, &number, nil)
	}

	WS.Send(userID, WSEvent{Type: EventDayUpdated, ChallengeID: id.String(), Data: day})
	return c.JSON(day)
}
