package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homilet-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount    = errors.New("Amount must be greater than zero")
	ErrAlreadyPaid      = errors.New("Property already has an active payment")
	ErrInvalidSignature = errors.New("Invalid payment signature")
	ErrOrderNotFound    = errors.New("Order not found")
	ErrGateway          = errors.New("Payment gateway unavailable")
)

type Service struct {
	DB        *gorm.DB
	Gateway   OrderCreator
	KeySecret string
	Now       func() time.Time // nil means time.Now
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type OrderResult struct {
	OrderID  string  `json:"orderId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CreateOrder opens a gateway order for a listing fee and records it as
// "created". A property with an unexpired paid record cannot be paid again.
func (s *Service) CreateOrder(ctx context.Context, userID, propertyID uuid.UUID, amount float64, propertyTitle string) (*OrderResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	active, err := s.activePayment(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrAlreadyPaid
	}

	receipt := "prop_" + propertyID.String()[:8] + "_" + fmt.Sprint(s.now().Unix())
	order, err := s.Gateway.CreateOrder(ctx, int64(amount*100), "INR", receipt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	rec := &domain.Payment{
		OrderID:       order.ID,
		PropertyID:    propertyID,
		UserID:        userID,
		Amount:        amount,
		Currency:      order.Currency,
		Status:        "created",
		PaymentType:   "listing",
		PropertyTitle: propertyTitle,
	}
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	log.Info().Str("order_id", order.ID).Str("property_id", propertyID.String()).Msg("payment order created")
	return &OrderResult{OrderID: order.ID, Amount: amount, Currency: order.Currency}, nil
}

// VerifyPayment checks the gateway signature and promotes the order to paid.
// Verifying an already-paid order is a conflict, not a success.
func (s *Service) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*domain.Payment, error) {
	var rec domain.Payment
	if err := s.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if rec.Paid() {
		return &rec, ErrAlreadyPaid
	}
	if !VerifySignature(orderID, paymentID, signature, s.KeySecret) {
		return nil, ErrInvalidSignature
	}

	updates := map[string]interface{}{
		"payment_id": paymentID,
		"status":     "paid",
	}
	if err := s.DB.WithContext(ctx).Model(&rec).Updates(updates).Error; err != nil {
		return nil, err
	}
	rec.PaymentID = paymentID
	rec.Status = "paid"
	log.Info().Str("order_id", orderID).Str("payment_id", paymentID).Msg("payment verified")
	return &rec, nil
}

// StatusResult is the reconciliation answer for one property. Payer identity
// is decided here, server-side; clients only display it.
type StatusResult struct {
	PaymentStatus      string          `json:"paymentStatus"`
	IsPaid             bool            `json:"isPaid"`
	IsCurrentUserPayer bool            `json:"isCurrentUserPayer"`
	PayerUserID        string          `json:"payerUserId"`
	DaysSincePayment   int             `json:"daysSincePayment"`
	ExpiresIn          *int            `json:"expiresIn,omitempty"` // days of validity left on a paid record
	PaymentInfo        *domain.Payment `json:"paymentInfo,omitempty"`
}

// CheckStatus reports the payment state of a property for a given viewer.
// Paid records past the validity window read as expired so the listing can be
// renewed.
func (s *Service) CheckStatus(ctx context.Context, propertyID, currentUserID uuid.UUID) (*StatusResult, error) {
	var rec domain.Payment
	err := s.DB.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order(`"createdAt" DESC`).
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &StatusResult{PaymentStatus: "none"}, nil
		}
		return nil, err
	}

	res := &StatusResult{
		PaymentStatus:    rec.Status,
		PayerUserID:      rec.UserID.String(),
		DaysSincePayment: rec.DaysSince(s.now()),
		PaymentInfo:      &rec,
	}
	if rec.Paid() {
		if rec.Expired(s.now()) {
			res.PaymentStatus = "expired"
		} else {
			res.IsPaid = true
			remaining := domain.PaymentValidityDays - res.DaysSincePayment
			res.ExpiresIn = &remaining
		}
	}
	res.IsCurrentUserPayer = currentUserID != uuid.Nil && rec.UserID == currentUserID
	return res, nil
}

// History lists the user's payments, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	var recs []domain.Payment
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(`"createdAt" DESC`).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// activePayment returns the property's paid record still inside the validity
// window, if any.
func (s *Service) activePayment(ctx context.Context, propertyID uuid.UUID) (*domain.Payment, error) {
	var rec domain.Payment
	err := s.DB.WithContext(ctx).
		Where("property_id = ? AND status = ?", propertyID, "paid").
		Order(`"createdAt" DESC`).
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	if rec.Expired(s.now()) {
		return nil, nil
	}
	return &rec, nil
}
