package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	userTokenTTL  = 7 * 24 * time.Hour
	guestTokenTTL = 24 * time.Hour
)

// Claims carried in the bearer token.
type Claims struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates bearer tokens.
type TokenService struct {
	Secret string
}

// Issue signs a token for the given identity. Guest tokens get the short TTL.
func (t *TokenService) Issue(userID, fullname, email, role string, guest bool) (string, error) {
	ttl := userTokenTTL
	if guest {
		ttl = guestTokenTTL
	}
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Fullname: fullname,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.Secret))
}

// Validate parses and verifies a token, returning its claims.
func (t *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(t.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}
