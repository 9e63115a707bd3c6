package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment validity window. One active paid record at most per property within
// this window; enforced in the payments service, surfaced to clients as an
// "already paid" conflict they must treat as a state update.
const PaymentValidityDays = 30

type Payment struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID       string         `gorm:"column:order_id;uniqueIndex;not null" json:"order_id"`
	PaymentID     string         `gorm:"column:payment_id;index" json:"payment_id"`
	PropertyID    uuid.UUID      `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Amount        float64        `gorm:"column:amount;type:decimal(14,2);not null" json:"amount"`
	Currency      string         `gorm:"column:currency;not null;default:INR" json:"currency"`
	Status        string         `gorm:"column:status;type:varchar(20);not null;default:created" json:"status"`
	PaymentType   string         `gorm:"column:payment_type;type:varchar(20);default:listing" json:"payment_type"`
	PropertyTitle string         `gorm:"column:property_title" json:"property_title"`
	RawEvent      datatypes.JSON `gorm:"column:raw_event" json:"-"` // last gateway webhook payload, for audits
	CreatedAt     time.Time      `gorm:"column:createdAt" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updatedAt" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Payment) TableName() string {
	return "Payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Paid reports whether the record is a captured payment.
func (p *Payment) Paid() bool {
	return p.Status == "paid"
}

// Expired reports whether a paid record has left its validity window.
func (p *Payment) Expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) > PaymentValidityDays*24*time.Hour
}

// DaysSince returns whole days elapsed since the payment was created.
func (p *Payment) DaysSince(now time.Time) int {
	return int(now.Sub(p.CreatedAt).Hours() / 24)
}
