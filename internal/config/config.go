package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	GoogleClientIDs   string
	FCMServiceAccount string
	FirebaseProjectID string
	StoreBackend      string // gorm or firestore
	StorageBucket     string
	ImageHostURL      string
	ImageHostKey      string
	UploadsDir        string
	ReminderTick      time.Duration
	LogLevel          string
	EagerDays         bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "challenges.db"),
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:              getEnv("PORT", "8080"),
		GoogleClientIDs:   getEnv("GOOGLE_CLIENT_IDS", ""),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		StoreBackend:      getEnv("STORE_BACKEND", "gorm"),
		StorageBucket:     getEnv("STORAGE_BUCKET", ""),
		ImageHostURL:      getEnv("IMAGE_HOST_URL", ""),
		ImageHostKey:      getEnv("IMAGE_HOST_KEY", ""),
		UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
		ReminderTick:      getDuration("REMINDER_TICK", 30*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		EagerDays:         getBool("EAGER_DAYS", false),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
