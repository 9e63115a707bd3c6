package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homilet-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	rateLimitWindow = time.Hour
	rateLimitMax    = 5
)

var (
	ErrMissingFields    = errors.New("Name, email and message are required")
	ErrPropertyNotFound = errors.New("Property not found")
	ErrRateLimited      = errors.New("Too many inquiries. Please try again later")
)

// Inquiry is one buyer-to-owner contact request.
type Inquiry struct {
	PropertyID    uuid.UUID
	PropertyTitle string
	SenderID      uuid.UUID // uuid.Nil for anonymous senders
	Name          string
	Email         string
	Phone         string
	Message       string
}

type Service struct {
	DB     *gorm.DB
	Rdb    *redis.Client // optional; nil disables rate limiting
	Mailer Sender        // optional; nil means no owner email
}

// SubmitInquiry records a contact message for the listing owner and fires the
// notification email. Email delivery is best-effort; the row is the source of
// truth.
func (s *Service) SubmitInquiry(ctx context.Context, inq Inquiry) (*domain.ContactMessage, error) {
	if strings.TrimSpace(inq.Name) == "" || strings.TrimSpace(inq.Email) == "" || strings.TrimSpace(inq.Message) == "" {
		return nil, ErrMissingFields
	}
	if err := s.checkRateLimit(ctx, inq); err != nil {
		return nil, err
	}

	var prop domain.Property
	if err := s.DB.WithContext(ctx).Where("id = ?", inq.PropertyID).First(&prop).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	inq.PropertyTitle = prop.Title

	msg := &domain.ContactMessage{
		PropertyID: prop.ID,
		OwnerID:    prop.CreatedBy,
		SenderID:   inq.SenderID,
		Name:       strings.TrimSpace(inq.Name),
		Email:      strings.TrimSpace(inq.Email),
		Phone:      strings.TrimSpace(inq.Phone),
		Message:    strings.TrimSpace(inq.Message),
	}
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}

	if s.Mailer != nil {
		if ownerEmail := s.ownerEmail(ctx, prop.CreatedBy); ownerEmail != "" {
			if err := s.Mailer.SendInquiry(ctx, ownerEmail, inq); err != nil {
				log.Warn().Err(err).Str("property_id", prop.ID.String()).Msg("inquiry email delivery failed")
			}
		}
	}
	return msg, nil
}

// Notifications returns the owner's contact messages, unread first.
func (s *Service) Notifications(ctx context.Context, ownerID uuid.UUID) ([]domain.ContactMessage, error) {
	var msgs []domain.ContactMessage
	if err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order(`read ASC, "createdAt" DESC`).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flags one of the owner's notifications as read.
func (s *Service) MarkRead(ctx context.Context, ownerID, messageID uuid.UUID) error {
	res := s.DB.WithContext(ctx).
		Model(&domain.ContactMessage{}).
		Where("id = ? AND owner_id = ?", messageID, ownerID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// checkRateLimit caps inquiries per sender per hour. Keyed by user when
// authenticated, by submitted email otherwise.
func (s *Service) checkRateLimit(ctx context.Context, inq Inquiry) error {
	if s.Rdb == nil {
		return nil
	}
	ident := strings.ToLower(strings.TrimSpace(inq.Email))
	if inq.SenderID != uuid.Nil {
		ident = inq.SenderID.String()
	}
	key := fmt.Sprintf("contact:rl:%s", ident)
	n, err := s.Rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Msg("contact rate limit check failed")
		return nil
	}
	if n == 1 {
		s.Rdb.Expire(ctx, key, rateLimitWindow)
	}
	if n > rateLimitMax {
		return ErrRateLimited
	}
	return nil
}

func (s *Service) ownerEmail(ctx context.Context, ownerID uuid.UUID) string {
	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", ownerID).First(&user).Error; err != nil {
		return ""
	}
	return user.Email
}
