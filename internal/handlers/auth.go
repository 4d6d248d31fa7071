package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/arnold/challenges-api/internal/database"
	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/arnold/challenges-api/internal/models"
	"github.com/arnold/challenges-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Google's tokeninfo endpoint; replaced in tests.
var googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

func authResponse(c *fiber.Ctx, status int, user models.User) error {
	token, err := middleware.GenerateToken(user.ID, user.Email)
	if err != nil {
		return serverError(c, "Failed to generate token", err)
	}
	return c.Status(status).JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

func Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}
	if len(req.Password) < 6 {
		return badRequest(c, "Password must be at least 6 characters")
	}

	// Check if user exists
	var existingUser models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return serverError(c, "Failed to hash password", err)
	}

	user := models.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return serverError(c, "Failed to create user", err)
	}

	return authResponse(c, fiber.StatusCreated, user)
}

func Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	return authResponse(c, fiber.StatusOK, user)
}

func GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return notFound(c, "User not found")
	}

	settings, err := loadSettings(userID)
	if err != nil {
		return serverError(c, "Failed to load settings", err)
	}

	return c.JSON(fiber.Map{
		"id":              user.ID,
		"email":           user.Email,
		"authProvider":    user.AuthProvider,
		"name":            user.Name,
		"displayName":     user.DisplayName,
		"publicName":      user.PublicName(),
		"profileImageUrl": settings.ProfileImageURL,
		"createdAt":       user.CreatedAt,
		"updatedAt":       user.UpdatedAt,
	})
}

func UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return notFound(c, "User not found")
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if len(name) > 50 {
			return badRequest(c, "Display name must be 50 characters or less")
		}
		updates["display_name"] = name
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			return serverError(c, "Failed to update profile", err)
		}
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return serverError(c, "Failed to reload profile", err)
		}
	}

	return c.JSON(user)
}

// googleTokenInfo represents the response from Google's tokeninfo endpoint
type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Sub           string `json:"sub"`
}

func GoogleLogin(c *fiber.Ctx) error {
	var req models.GoogleAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.IDToken == "" {
		return badRequest(c, "ID token is required")
	}

	tokenInfo, err := verifyGoogleIDToken(req.IDToken)
	if err != nil {
		zap.L().Info("google token verification failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid Google token",
		})
	}

	// The token's aud is the Android or web client ID the app signed in with.
	if len(GoogleClientIDs) > 0 {
		valid := false
		for _, id := range GoogleClientIDs {
			if id == tokenInfo.Aud {
				valid = true
				break
			}
		}
		if !valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token not intended for this app",
			})
		}
	}

	if tokenInfo.Email == "" {
		return badRequest(c, "Email not available from Google account")
	}

	user, err := findOrCreateUser(strings.ToLower(tokenInfo.Email), tokenInfo.Name, "google", nil)
	if err != nil {
		return serverError(c, "Failed to create user", err)
	}
	return authResponse(c, fiber.StatusOK, *user)
}

// FirebaseLogin exchanges a Firebase ID token for an API token.
func FirebaseLogin(c *fiber.Ctx) error {
	if services.FirebaseAuth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Firebase login is not configured",
		})
	}

	var req models.GoogleAuthRequest
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return badRequest(c, "ID token is required")
	}

	token, err := services.FirebaseAuth.VerifyIDToken(c.UserContext(), req.IDToken)
	if err != nil {
		zap.L().Info("firebase token verification failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid Firebase token",
		})
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if email == "" {
		return badRequest(c, "Email not available from Firebase account")
	}

	uid := token.UID
	user, err := findOrCreateUser(strings.ToLower(email), name, "firebase", &uid)
	if err != nil {
		return serverError(c, "Failed to create user", err)
	}
	return authResponse(c, fiber.StatusOK, *user)
}

// findOrCreateUser resolves a federated login to an account, matching on
// the Firebase UID first and the email second.
func findOrCreateUser(email, name, provider string, firebaseUID *string) (*models.User, error) {
	var user models.User
	if firebaseUID != nil {
		err := database.DB.Where("firebase_uid = ?", *firebaseUID).First(&user).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := database.DB.Where("email = ?", email).First(&user).Error
	if err == nil {
		if firebaseUID != nil && user.FirebaseUID == nil {
			if err := database.DB.Model(&user).Update("firebase_uid", *firebaseUID).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Email:        email,
		Name:         name,
		AuthProvider: provider,
		FirebaseUID:  firebaseUID,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// verifyGoogleIDToken verifies a Google ID token using Google's tokeninfo endpoint
func verifyGoogleIDToken(idToken string) (*googleTokenInfo, error) {
	var info googleTokenInfo
	code, _, errs := fiber.Get(googleTokenInfoURL + "?id_token=" + url.QueryEscape(idToken)).
		Timeout(10 * time.Second).
		Struct(&info)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to verify token: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("token verification failed with status %d", code)
	}
	return &info, nil
}
