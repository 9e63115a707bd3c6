package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProfileUser(t *testing.T, db *gorm.DB, email string) uuid.UUID {
	t.Helper()
	u, err := RegisterUser(db, RegisterInput{Fullname: "Asha Rao", Email: email, Password: "str0ng!pass"})
	require.NoError(t, err)
	return u.UserID
}

func TestUpdateProfile(t *testing.T) {
	db := setupAuthDB(t)
	id := seedProfileUser(t, db, "asha@example.com")

	u, err := UpdateProfile(db, id, ProfileInput{
		Fullname: "Asha R Rao",
		Email:    "asha.rao@example.com",
		Mobile:   "9876543210",
		Address:  "12 Lake Road, Pune",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha R Rao", u.Fullname)
	assert.Equal(t, "asha.rao@example.com", u.Email)

	stored, err := GetUser(db, id)
	require.NoError(t, err)
	assert.Equal(t, "12 Lake Road, Pune", stored.Address)
	assert.Equal(t, "9876543210", stored.Mobile)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	db := setupAuthDB(t)
	seedProfileUser(t, db, "first@example.com")
	id := seedProfileUser(t, db, "second@example.com")

	_, err := UpdateProfile(db, id, ProfileInput{Fullname: "Asha Rao", Email: "first@example.com"})
	assert.Equal(t, ErrEmailTaken, err)
}

func TestUpdateProfile_KeepingOwnEmail(t *testing.T) {
	db := setupAuthDB(t)
	id := seedProfileUser(t, db, "asha@example.com")

	_, err := UpdateProfile(db, id, ProfileInput{Fullname: "Asha Rao", Email: "asha@example.com"})
	assert.NoError(t, err, "re-submitting the current email is not a conflict")
}

func TestGetUser_NotFound(t *testing.T) {
	db := setupAuthDB(t)
	_, err := GetUser(db, uuid.New())
	assert.Equal(t, ErrUserNotFound, err)
}
