package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/arnold/challenges-api/internal/config"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Firebase ID-token verifier. Nil when Firebase is not configured.
var FirebaseAuth *auth.Client

// InitFirebase sets up push messaging and Firebase auth from the configured
// service account. Without one both are disabled and the API keeps working.
func InitFirebase(ctx context.Context, cfg *config.Config) {
	Push = &PushService{}

	if cfg.FCMServiceAccount == "" {
		zap.L().Info("firebase: no service account configured, push and firebase login disabled")
		return
	}

	var fbCfg *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(cfg.FCMServiceAccount))
	if err != nil {
		zap.L().Warn("firebase: failed to initialize app", zap.Error(err))
		return
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		zap.L().Warn("firebase: failed to get messaging client", zap.Error(err))
	} else {
		Push = &PushService{client: client}
		zap.L().Info("firebase: push notifications enabled")
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		zap.L().Warn("firebase: failed to get auth client", zap.Error(err))
		return
	}
	FirebaseAuth = authClient
}
