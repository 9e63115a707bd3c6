package payments

import (
	"encoding/json"
	"errors"

	paysvc "homilet-backend/internal/application/payments"
	"homilet-backend/internal/middleware"
	"homilet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *paysvc.Service
	KeyID   string // public gateway key handed to the checkout widget
}

// POST /api/payments/create-order
func (h *Handlers) CreateOrder(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}

	var body struct {
		PropertyID    string  `json:"propertyId"`
		Amount        float64 `json:"amount"`
		PropertyTitle string  `json:"propertyTitle"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}
	propertyID, err := uuid.Parse(body.PropertyID)
	if err != nil {
		return response.Error(c, "Invalid propertyId", 400)
	}

	order, err := h.Service.CreateOrder(c.Context(), userID, propertyID, body.Amount, body.PropertyTitle)
	if err != nil {
		switch {
		case errors.Is(err, paysvc.ErrInvalidAmount):
			return response.Error(c, err.Error(), 400)
		case errors.Is(err, paysvc.ErrAlreadyPaid):
			return response.Error(c, "Property already has an active payment", 400)
		case errors.Is(err, paysvc.ErrGateway):
			// Gateway trouble is not a database failure; no retry-triggering
			// code on this one.
			return response.Error(c, "Payment gateway unavailable. Please try again later", 502)
		default:
			return response.ErrorCoded(c, "Failed to create payment order", 500, response.ErrCodeDB)
		}
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Order created successfully",
		"orderId":  order.OrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"keyId":    h.KeyID,
	})
}

// POST /api/payments/verify-payment
func (h *Handlers) VerifyPayment(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	var body struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}
	if body.OrderID == "" || body.PaymentID == "" || body.Signature == "" {
		return response.Error(c, "Missing payment verification fields", 400)
	}

	rec, err := h.Service.VerifyPayment(c.Context(), body.OrderID, body.PaymentID, body.Signature)
	if err != nil {
		switch err {
		case paysvc.ErrAlreadyPaid:
			// Not a failure the client should retry; it must adopt the paid state.
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Payment already verified", "payment": rec})
		case paysvc.ErrInvalidSignature:
			return response.Error(c, "Invalid payment signature", 400)
		case paysvc.ErrOrderNotFound:
			return response.Error(c, "Order not found", 404)
		default:
			return response.ErrorCoded(c, "Payment verification failed", 500, response.ErrCodeDB)
		}
	}
	return c.JSON(fiber.Map{"success": true, "message": "Payment verified successfully", "payment": rec})
}

// GET /api/payments/check-status?propertyId=
func (h *Handlers) CheckStatus(c *fiber.Ctx) error {
	propertyID, err := uuid.Parse(c.Query("propertyId"))
	if err != nil {
		return response.Error(c, "Invalid propertyId", 400)
	}

	currentUserID := uuid.Nil
	if claims := middleware.GetClaims(c); claims != nil {
		if id, err := uuid.Parse(claims.UserID); err == nil {
			currentUserID = id
		}
	}

	st, err := h.Service.CheckStatus(c.Context(), propertyID, currentUserID)
	if err != nil {
		return response.ErrorCoded(c, "Failed to check payment status", 500, response.ErrCodeDB)
	}
	return c.JSON(fiber.Map{
		"success":            true,
		"paymentStatus":      st.PaymentStatus,
		"isPaid":             st.IsPaid,
		"isCurrentUserPayer": st.IsCurrentUserPayer,
		"payerUserId":        st.PayerUserID,
		"daysSincePayment":   st.DaysSincePayment,
		"expiresIn":          st.ExpiresIn,
		"paymentInfo":        st.PaymentInfo,
	})
}

// GET /api/payments/history
func (h *Handlers) History(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}

	recs, err := h.Service.History(c.Context(), userID)
	if err != nil {
		return response.ErrorCoded(c, "Failed to fetch payment history", 500, response.ErrCodeDB)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Payment history fetched", "history": recs})
}

// GET /api/payments/test-db — connectivity probe the checkout flow uses to
// tell transport failures from database failures.
func (h *Handlers) TestDB(c *fiber.Ctx) error {
	sqlDB, err := h.Service.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return response.ErrorCoded(c, "Database connection failed", 500, response.ErrCodeDB)
	}
	var n int64
	if err := h.Service.DB.WithContext(c.Context()).Table("Payments").Count(&n).Error; err != nil {
		return response.ErrorCoded(c, "Database query failed", 500, response.ErrCodeDB)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Database connection OK", "payments": n})
}
