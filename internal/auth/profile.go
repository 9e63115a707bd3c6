package auth

import (
	"homilet-backend/internal/domain"
	"homilet-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileInput is the editable slice of an account. Role and password change
// through their own flows, never here.
type ProfileInput struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Address  string `json:"address"`
}

// GetUser loads the account behind an authenticated user ID.
func GetUser(db *gorm.DB, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := db.First(&u, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile validates and applies profile edits. Moving to an email
// another account already holds is rejected.
func UpdateProfile(db *gorm.DB, userID uuid.UUID, input ProfileInput) (*domain.User, error) {
	u, err := GetUser(db, userID)
	if err != nil {
		return nil, err
	}

	if !validation.IsValidFullname(input.Fullname) {
		return nil, ErrInvalidFullname
	}
	if !validation.IsValidEmail(input.Email) {
		return nil, ErrInvalidEmail
	}
	if input.Email != u.Email {
		var existing domain.User
		if err := db.Where("email = ? AND user_id <> ?", input.Email, userID).First(&existing).Error; err == nil {
			return nil, ErrEmailTaken
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"fullname": input.Fullname,
		"email":    input.Email,
		"mobile":   input.Mobile,
		"address":  input.Address,
	}
	if err := db.Model(u).Updates(updates).Error; err != nil {
		return nil, err
	}
	u.Fullname = input.Fullname
	u.Email = input.Email
	u.Mobile = input.Mobile
	u.Address = input.Address
	return u, nil
}
