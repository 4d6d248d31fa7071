package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/arnold/challenges-api/internal/config"
	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/handlers"
	"github.com/arnold/challenges-api/internal/images"
	"github.com/arnold/challenges-api/internal/logger"
	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/reminders"
	"github.com/arnold/challenges-api/internal/routes"
	"github.com/arnold/challenges-api/internal/services"
	"github.com/arnold/challenges-api/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	cfg := config.Load()

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Connect(cfg); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	challenges, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open challenge store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer challenges.Close()

	if err := database.Migrate(cfg.StoreBackend != "firestore"); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	log.Info("database ready", zap.String("backend", cfg.StoreBackend))

	services.InitFirebase(ctx, cfg)
	middleware.SetSecret(cfg.JWTSecret)

	uploader, err := openUploader(ctx, cfg)
	if err != nil {
		log.Fatal("failed to set up image uploads", zap.Error(err))
	}

	scheduler := reminders.NewScheduler(
		&services.ReminderNotifier{Store: challenges},
		services.SettingsSource{},
		cfg.ReminderTick,
	)
	go func() {
		if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("reminder scheduler stopped", zap.Error(err))
		}
	}()

	handlers.Challenges = challenges
	handlers.Reminders = scheduler
	handlers.Images = uploader
	handlers.EagerDays = cfg.EagerDays
	handlers.GoogleClientIDs = handlers.ParseClientIDs(cfg.GoogleClientIDs)

	app := fiber.New(fiber.Config{
		AppName:   "challenges-api",
		BodyLimit: images.MaxSize + 1024*1024,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Static("/uploads", cfg.UploadsDir)

	routes.Setup(app)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend != "firestore" {
		return store.NewGormStore(database.DB), nil
	}

	var opts []option.ClientOption
	if cfg.FCMServiceAccount != "" && os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FCMServiceAccount))
	}
	projectID := cfg.FirebaseProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	return store.NewFirestoreStore(client), nil
}

// openUploader picks the bucket when one is configured, then the image
// host, then local disk.
func openUploader(ctx context.Context, cfg *config.Config) (images.Uploader, error) {
	switch {
	case cfg.StorageBucket != "":
		var opts []option.ClientOption
		if cfg.FCMServiceAccount != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FCMServiceAccount))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, err
		}
		zap.L().Info("profile images stored in bucket", zap.String("bucket", cfg.StorageBucket))
		return images.NewBucketUploader(client, cfg.StorageBucket), nil
	case cfg.ImageHostURL != "":
		zap.L().Info("profile images sent to image host", zap.String("endpoint", cfg.ImageHostURL))
		return &images.HostUploader{Endpoint: cfg.ImageHostURL, APIKey: cfg.ImageHostKey}, nil
	default:
		zap.L().Info("profile images stored on disk", zap.String("dir", cfg.UploadsDir))
		return &images.DiskUploader{Dir: cfg.UploadsDir, URLPrefix: "/uploads"}, nil
	}
}
