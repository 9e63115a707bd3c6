package auth

import (
	"encoding/json"

	authsvc "homilet-backend/internal/auth"
	"homilet-backend/internal/middleware"
	"homilet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GET /api/user
func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}

	user, err := authsvc.GetUser(h.DB, userID)
	if err != nil {
		if err == authsvc.ErrUserNotFound {
			return response.Error(c, err.Error(), 404)
		}
		return response.Error(c, "Failed to load profile", 500)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Profile fetched", "user": userPayload(user)})
}

// PUT /api/user/profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input authsvc.ProfileInput
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}

	user, err := authsvc.UpdateProfile(h.DB, userID, input)
	if err != nil {
		switch err {
		case authsvc.ErrUserNotFound:
			return response.Error(c, err.Error(), 404)
		case authsvc.ErrEmailTaken:
			return response.Error(c, err.Error(), 409)
		case authsvc.ErrInvalidFullname, authsvc.ErrInvalidEmail:
			return response.Error(c, err.Error(), 400)
		default:
			return response.Error(c, "Profile update failed", 500)
		}
	}
	return c.JSON(fiber.Map{"success": true, "message": "Profile updated successfully", "user": userPayload(user)})
}
