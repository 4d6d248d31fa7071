package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/handlers"
	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/arnold/challenges-api/internal/reminders"
	"github.com/arnold/challenges-api/internal/routes"
	"github.com/arnold/challenges-api/internal/services"
	"github.com/arnold/challenges-api/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp wires the handlers against a fresh in-memory database.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	database.DB = db
	require.NoError(t, database.Migrate(true))

	middleware.SetSecret("test-secret")
	services.Push = &services.PushService{}
	handlers.Challenges = store.NewGormStore(db)
	handlers.Reminders = reminders.NewScheduler(&services.ReminderNotifier{Store: handlers.Challenges}, services.SettingsSource{}, 0)
	handlers.Images = nil
	handlers.EagerDays = false
	handlers.GoogleClientIDs = nil
	handlers.WS = handlers.NewHub()

	app := fiber.New()
	routes.Setup(app)
	return app
}

// newUser registers a user directly and returns its id and a bearer token.
func newUser(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()
	u := models.User{Email: email, Name: "Test"}
	require.NoError(t, database.DB.Create(&u).Error)
	token, err := middleware.GenerateToken(u.ID, u.Email)
	require.NoError(t, err)
	return u.ID, token
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func postChallenge(t *testing.T, app *fiber.App, token string, body fiber.Map) models.ChallengeSummary {
	t.Helper()
	resp := do(t, app, "POST", "/api/challenges", token, body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var ch models.ChallengeSummary
	decode(t, resp, &ch)
	return ch
}
