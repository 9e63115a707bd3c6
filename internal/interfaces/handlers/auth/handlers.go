package auth

import (
	"encoding/json"

	authsvc "homilet-backend/internal/auth"
	"homilet-backend/internal/domain"
	"homilet-backend/internal/middleware"
	"homilet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Handlers struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Tokens *authsvc.TokenService
}

func userPayload(u *domain.User) fiber.Map {
	return fiber.Map{
		"userId":   u.UserID,
		"fullname": u.Fullname,
		"email":    u.Email,
		"mobile":   u.Mobile,
		"address":  u.Address,
		"role":     u.Role,
	}
}

// POST /api/auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var input authsvc.RegisterInput
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}

	user, err := authsvc.RegisterUser(h.DB, input)
	if err != nil {
		status := 400
		if err == authsvc.ErrEmailTaken {
			status = 409
		}
		return response.Error(c, err.Error(), status)
	}

	token, err := h.Tokens.Issue(user.UserID.String(), user.Fullname, user.Email, user.Role, false)
	if err != nil {
		return response.Error(c, "Failed to issue token", 500)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "message": "Account created successfully", "token": token, "user": userPayload(user)})
}

// POST /api/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var input authsvc.LoginInput
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}

	user, err := authsvc.LoginUser(h.DB, input)
	if err != nil {
		status := 401
		if err == authsvc.ErrEmailPasswordRequired {
			status = 400
		}
		return response.Error(c, err.Error(), status)
	}

	token, err := h.Tokens.Issue(user.UserID.String(), user.Fullname, user.Email, user.Role, false)
	if err != nil {
		return response.Error(c, "Failed to issue token", 500)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Logged in successfully", "token": token, "user": userPayload(user)})
}

// POST /api/guest-login — short-lived browse-only identity
func (h *Handlers) GuestLogin(c *fiber.Ctx) error {
	guest, err := authsvc.NewGuest(c.Context(), h.Rdb)
	if err != nil {
		return response.Error(c, "Failed to create guest session", 500)
	}

	token, err := h.Tokens.Issue(guest.ID, guest.Fullname, guest.Email, guest.Role, true)
	if err != nil {
		return response.Error(c, "Failed to issue token", 500)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Guest session created",
		"token":   token,
		"user": fiber.Map{
			"userId":    guest.ID,
			"fullname":  guest.Fullname,
			"email":     guest.Email,
			"role":      guest.Role,
			"expiresAt": guest.ExpiresAt,
		},
	})
}

// GET /api/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Authenticated",
		"user": fiber.Map{
			"userId":   claims.UserID,
			"fullname": claims.Fullname,
			"email":    claims.Email,
			"role":     claims.Role,
		},
	})
}
