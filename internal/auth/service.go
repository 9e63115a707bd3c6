package auth

import (
	"context"
	"fmt"
	"time"

	"homilet-backend/internal/domain"
	"homilet-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// guestSessionPrefix keys guest sessions in Redis; the TTL mirrors the guest
// token lifetime so /api/guest-login sessions age out on their own.
const guestSessionPrefix = "guest:"

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput for signup request body.
type RegisterInput struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
}

// UserFinder abstracts user lookup by email+password (for production GORM or test doubles).
type UserFinder interface {
	FindByEmailAndPassword(email, password string) (*domain.User, error)
}

// GormUserFinder implements UserFinder using GORM and bcrypt.
type GormUserFinder struct{ DB *gorm.DB }

func (g *GormUserFinder) FindByEmailAndPassword(email, password string) (*domain.User, error) {
	return LoginUser(g.DB, LoginInput{Email: email, Password: password})
}

// LoginUser finds user by email and verifies password.
func LoginUser(db *gorm.DB, input LoginInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := db.Where("email = ?", input.Email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}

// RegisterUser validates input and creates a user with a bcrypt hash.
func RegisterUser(db *gorm.DB, input RegisterInput) (*domain.User, error) {
	if !validation.IsValidFullname(input.Fullname) {
		return nil, ErrInvalidFullname
	}
	if !validation.IsValidEmail(input.Email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(input.Password) {
		return nil, ErrWeakPassword
	}
	var existing domain.User
	if err := db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Fullname:     input.Fullname,
		Email:        input.Email,
		PasswordHash: string(hash),
		Mobile:       input.Mobile,
		Role:         domain.RoleUser,
	}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GuestIdentity is the anonymous session issued by guest-login. Guests are
// not persisted as User rows; the session lives in Redis with a 24h TTL.
type GuestIdentity struct {
	ID        string    `json:"id"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewGuest issues a fresh guest identity and records the session in Redis.
// A nil client skips recording (tests without Redis).
func NewGuest(ctx context.Context, rdb *redis.Client) (*GuestIdentity, error) {
	id := "guest-" + uuid.New().String()
	g := &GuestIdentity{
		ID:        id,
		Fullname:  "Guest User",
		Email:     fmt.Sprintf("%s@guest.homilet.in", id),
		Role:      domain.RoleGuest,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if rdb != nil {
		if err := rdb.Set(ctx, guestSessionPrefix+id, g.ExpiresAt.Unix(), 24*time.Hour).Err(); err != nil {
			return nil, err
		}
	}
	return g, nil
}
