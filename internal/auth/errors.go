package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrEmailTaken            = errors.New("Email is already registered")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters with a letter, a number and a special character")
	ErrInvalidFullname       = errors.New("Invalid Fullname")
	ErrUserNotFound          = errors.New("User not found")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
