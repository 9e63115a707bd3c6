package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const guestSessionTTL = 24 * time.Hour

// Identity is the signed-in principal the client carries between calls.
type Identity struct {
	Token    string
	UserID   string
	Fullname string
	Email    string
	Role     string
	IssuedAt time.Time
}

// Guest reports whether this identity is a limited browse-only session.
func (id *Identity) Guest() bool {
	return id.Role == "guest" || strings.HasPrefix(id.UserID, "guest-") || strings.HasPrefix(id.UserID, "offline-guest-")
}

// Offline reports whether the identity was minted locally without the server.
func (id *Identity) Offline() bool {
	return strings.HasPrefix(id.UserID, "offline-guest-")
}

// Expired reports whether a guest identity has outlived its 24-hour window.
// Full accounts rely on the token's own expiry instead.
func (id *Identity) Expired(now time.Time) bool {
	if !id.Guest() {
		return false
	}
	return now.Sub(id.IssuedAt) > guestSessionTTL
}

// SessionStore holds the current identity. Safe for concurrent use: the
// search controller, reconciler, and checkout flow all read from it.
type SessionStore struct {
	mu  sync.RWMutex
	id  *Identity
	now func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{now: time.Now}
}

// Token returns the bearer token, or "" when signed out or expired.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.id == nil || s.id.Expired(s.now()) {
		return ""
	}
	return s.id.Token
}

// Identity returns a copy of the current identity, nil when signed out.
func (s *SessionStore) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.id == nil || s.id.Expired(s.now()) {
		return nil
	}
	clone := *s.id
	return &clone
}

// SetIdentity installs a fresh identity (login, register, guest-login).
func (s *SessionStore) SetIdentity(id *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != nil && id.IssuedAt.IsZero() {
		id.IssuedAt = s.now()
	}
	s.id = id
}

// Clear drops the credential. Called on 401 so the UI can send the user back
// to login.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = nil
}

// EnsureGuest makes sure some identity exists for browse-only flows. It asks
// the server for a guest session first; if that fails on transport, it mints
// a local offline guest so the UI keeps working, valid for the same 24 hours.
func (s *SessionStore) EnsureGuest(ctx context.Context, c *Client) (*Identity, error) {
	if id := s.Identity(); id != nil {
		return id, nil
	}

	id, err := c.GuestLogin(ctx)
	if err != nil {
		apiErr, ok := AsAPIError(err)
		if !ok || apiErr.Kind != KindTransient {
			return nil, err
		}
		log.Warn().Err(err).Msg("guest login unreachable, falling back to offline guest")
		now := s.now()
		id = &Identity{
			UserID:   fmt.Sprintf("offline-guest-%d", now.Unix()),
			Fullname: "Guest User",
			Role:     "guest",
			IssuedAt: now,
		}
	}
	s.SetIdentity(id)
	return s.Identity(), nil
}
