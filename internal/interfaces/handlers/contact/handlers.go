package contact

import (
	"encoding/json"

	contactsvc "homilet-backend/internal/application/contact"
	"homilet-backend/internal/middleware"
	"homilet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handlers struct {
	Service *contactsvc.Service
}

// POST /api/contact-agent
func (h *Handlers) ContactAgent(c *fiber.Ctx) error {
	var body struct {
		PropertyID string `json:"propertyId"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}
	propertyID, err := uuid.Parse(body.PropertyID)
	if err != nil {
		return response.Error(c, "Invalid propertyId", 400)
	}

	senderID := uuid.Nil
	if claims := middleware.GetClaims(c); claims != nil {
		if id, err := uuid.Parse(claims.UserID); err == nil {
			senderID = id
		}
	}

	msg, err := h.Service.SubmitInquiry(c.Context(), contactsvc.Inquiry{
		PropertyID: propertyID,
		SenderID:   senderID,
		Name:       body.Name,
		Email:      body.Email,
		Phone:      body.Phone,
		Message:    body.Message,
	})
	if err != nil {
		switch err {
		case contactsvc.ErrMissingFields:
			return response.Error(c, err.Error(), 400)
		case contactsvc.ErrPropertyNotFound:
			return response.Error(c, "Property not found", 404)
		case contactsvc.ErrRateLimited:
			return response.Error(c, err.Error(), 429)
		default:
			return response.ErrorCoded(c, "Failed to submit inquiry", 500, response.ErrCodeDB)
		}
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "message": "Inquiry sent successfully", "inquiry": msg})
}

// GET /api/notifications — inquiries on the caller's listings
func (h *Handlers) Notifications(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}

	msgs, err := h.Service.Notifications(c.Context(), ownerID)
	if err != nil {
		return response.ErrorCoded(c, "Failed to fetch notifications", 500, response.ErrCodeDB)
	}
	unread := 0
	for i := range msgs {
		if !msgs[i].Read {
			unread++
		}
	}
	return c.JSON(fiber.Map{"success": true, "message": "Notifications fetched", "notifications": msgs, "unreadCount": unread})
}

// PUT /api/notifications/:id/read
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}
	msgID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid notification id", 400)
	}

	if err := h.Service.MarkRead(c.Context(), ownerID, msgID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.Error(c, "Notification not found", 404)
		}
		return response.ErrorCoded(c, "Failed to update notification", 500, response.ErrCodeDB)
	}
	return response.Success(c, "Notification marked as read", nil)
}
