package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactMessage is an inquiry submitted through the contact-agent form. It
// doubles as the owner's notification row (listed by /api/notifications).
type ContactMessage struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PropertyID uuid.UUID      `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	OwnerID    uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	SenderID   uuid.UUID      `gorm:"column:sender_id;type:uuid;not null" json:"sender_id"`
	Name       string         `gorm:"column:name;not null" json:"name"`
	Email      string         `gorm:"column:email;not null" json:"email"`
	Phone      string         `gorm:"column:phone" json:"phone"`
	Message    string         `gorm:"column:message;not null" json:"message"`
	Read       bool           `gorm:"column:read;default:false" json:"read"`
	CreatedAt  time.Time      `gorm:"column:createdAt" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updatedAt" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ContactMessage) TableName() string {
	return "ContactMessages"
}

func (m *ContactMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
