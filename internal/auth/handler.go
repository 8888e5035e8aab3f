package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inventory-backend/internal/config"
	"inventory-backend/internal/models"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func RegisterHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
		}
		if _, err := mail.ParseAddress(body.Email); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid email address")
		}
		if len(body.Password) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 8 characters")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
		}

		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Email is already registered")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
	}
}

func LoginHandler(cfg *config.Config, db *gorm.DB, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := db.WithContext(c.UserContext()).Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		access, err := GenerateAccessToken(cfg, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}
		refresh, claims, err := GenerateRefreshToken(cfg, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		row := models.RefreshToken{
			ID:        claims.ID,
			UserID:    user.ID,
			TokenHash: hashToken(refresh),
			ExpiresAt: claims.ExpiresAt.Time,
		}
		if err := db.WithContext(c.UserContext()).Create(&row).Error; err != nil {
			logger.Error("store refresh token", zap.Uint("user_id", user.ID), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		logger.Info("user logged in", zap.Uint("user_id", user.ID))
		return c.JSON(fiber.Map{
			"access":  access,
			"refresh": refresh,
			"user":    UserResponse{ID: user.ID, Name: user.Name, Email: user.Email},
		})
	}
}

// RefreshHandler exchanges a live refresh token for a new access token.
// The refresh token itself is not rotated.
func RefreshHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := c.BodyParser(&body); err != nil || body.Refresh == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Refresh token is required")
		}

		claims, err := ParseToken(cfg, body.Refresh, TokenTypeRefresh)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired refresh token")
		}

		ctx := c.UserContext()
		var row models.RefreshToken
		err = db.WithContext(ctx).
			Where("id = ? AND token_hash = ?", claims.ID, hashToken(body.Refresh)).
			First(&row).Error
		if err != nil || row.RevokedAt != nil || !row.ExpiresAt.After(time.Now()) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired refresh token")
		}

		var user models.User
		if err := db.WithContext(ctx).First(&user, row.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired refresh token")
		}

		access, err := GenerateAccessToken(cfg, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}
		return c.JSON(TokenPair{Access: access})
	}
}

// LogoutHandler revokes the given refresh token. Unknown or already
// revoked tokens are not an error.
func LogoutHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := c.BodyParser(&body); err != nil || body.Refresh == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Refresh token is required")
		}

		if claims, err := ParseToken(cfg, body.Refresh, TokenTypeRefresh); err == nil {
			err := db.WithContext(c.UserContext()).Model(&models.RefreshToken{}).
				Where("id = ? AND revoked_at IS NULL", claims.ID).
				Update("revoked_at", time.Now()).Error
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not revoke token")
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "No user in context")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return c.JSON(UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
	}
}
