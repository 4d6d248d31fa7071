package routes

import (
	"github.com/arnold/challenges-api/internal/handlers"
	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)
	auth.Post("/google", handlers.GoogleLogin)
	auth.Post("/firebase", handlers.FirebaseLogin)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)

	challenges := protected.Group("/challenges")
	challenges.Get("/", handlers.GetChallenges)
	challenges.Post("/", handlers.CreateChallenge)
	challenges.Get("/:id", handlers.GetChallenge)
	challenges.Put("/:id", handlers.UpdateChallenge)
	challenges.Delete("/:id", handlers.DeleteChallenge)
	challenges.Post("/:id/advance", handlers.AdvanceChallenge)
	challenges.Post("/:id/state", handlers.ChangeChallengeState)

	// Days
	challenges.Get("/:id/days", handlers.GetDays)
	challenges.Get("/:id/days/today", handlers.GetToday)
	challenges.Get("/:id/days/:number", handlers.GetDay)
	challenges.Post("/:id/days/:number/habits/:index/toggle", handlers.ToggleHabit)

	// Challenge activity
	challenges.Get("/:id/activity", handlers.GetChallengeActivity)

	// Public templates
	templates := protected.Group("/templates")
	templates.Get("/", handlers.GetTemplates)
	templates.Post("/", handlers.PublishTemplate)
	templates.Get("/:id", handlers.GetTemplate)
	templates.Post("/:id/start", handlers.StartTemplate)

	settings := protected.Group("/settings")
	settings.Get("/", handlers.GetSettings)
	settings.Put("/", handlers.UpdateSettings)
	settings.Post("/profile-image", handlers.UploadProfileImage)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time updates across the user's devices
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws", websocket.New(handlers.HandleWebSocket))
}
