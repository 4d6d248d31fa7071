package database

import (
	"strings"

	"github.com/arnold/challenges-api/internal/config"
	"github.com/arnold/challenges-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var dialector gorm.Dialector

	// Use PostgreSQL if URL starts with postgres, otherwise SQLite
	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(cfg.DatabaseURL)
	}

	logMode := logger.Warn
	if cfg.LogLevel == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// Migrate creates the account tables and, when challenges live in the
// relational backend, the challenge tables too.
func Migrate(withChallenges bool) error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Settings{},
		&models.Notification{},
		&models.Activity{},
	); err != nil {
		return err
	}
	if !withChallenges {
		return nil
	}
	return DB.AutoMigrate(
		&models.Challenge{},
		&models.Day{},
		&models.ChallengeTemplate{},
	)
}
