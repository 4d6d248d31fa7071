package handlers_test

import (
	"testing"

	"github.com/arnold/challenges-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndStartTemplate(t *testing.T) {
	app := newTestApp(t)
	authorID, author := newUser(t, "author@example.com")
	starterID, starter := newUser(t, "starter@example.com")

	ch := postChallenge(t, app, author, fiber.Map{
		"name":     "Read daily",
		"duration": 21,
		"habits":   []string{"20 pages"},
		"tags":     []string{"books"},
	})
	require.Equal(t, fiber.StatusOK, do(t, app, "POST", "/api/challenges/"+ch.ID.String()+"/days/1/habits/0/toggle", author, nil).StatusCode)

	// only the owner can publish
	resp := do(t, app, "POST", "/api/templates", starter, fiber.Map{"challengeId": ch.ID})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = do(t, app, "POST", "/api/templates", author, fiber.Map{"challengeId": ch.ID, "imageUrl": "https://img/x.png"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var tmpl models.ChallengeTemplate
	decode(t, resp, &tmpl)
	assert.Equal(t, authorID, tmpl.AuthorID)
	assert.Equal(t, 21, tmpl.Duration)
	require.Len(t, tmpl.Habits, 1)
	assert.False(t, tmpl.Habits[0].Completed)

	resp = do(t, app, "GET", "/api/templates", starter, nil)
	var list []models.ChallengeTemplate
	decode(t, resp, &list)
	require.Len(t, list, 1)

	resp = do(t, app, "POST", "/api/templates/"+tmpl.ID.String()+"/start", starter, fiber.Map{"startDate": "2026-06-01", "eagerDays": true})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var started models.ChallengeSummary
	decode(t, resp, &started)
	assert.Equal(t, starterID, started.UserID)
	assert.Equal(t, "Read daily", started.Name)
	assert.Equal(t, 1, started.CurrentDay)
	assert.Equal(t, models.StateActive, started.State)
	require.NotNil(t, started.TemplateID)
	assert.Equal(t, tmpl.ID, *started.TemplateID)

	resp = do(t, app, "GET", "/api/challenges/"+started.ID.String()+"/days", starter, nil)
	var days []models.Day
	decode(t, resp, &days)
	assert.Len(t, days, 21)
}

func TestTemplateErrors(t *testing.T) {
	app := newTestApp(t)
	_, token := newUser(t, "a@example.com")

	assert.Equal(t, fiber.StatusNotFound, do(t, app, "GET", "/api/templates/"+uuid.NewString(), token, nil).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, do(t, app, "GET", "/api/templates/nope", token, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, do(t, app, "POST", "/api/templates/"+uuid.NewString()+"/start", token, nil).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, do(t, app, "POST", "/api/templates", token, fiber.Map{}).StatusCode)
}
