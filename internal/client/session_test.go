package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/guest-login" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"token":   "guest-token",
			"user": map[string]string{
				"userId":   "guest-abc123",
				"fullname": "Guest User",
				"role":     "guest",
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEnsureGuest_UsesServer(t *testing.T) {
	srv := guestServer(t)
	store := NewSessionStore()
	c := New(srv.URL, store)

	id, err := store.EnsureGuest(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "guest-abc123", id.UserID)
	assert.True(t, id.Guest())
	assert.False(t, id.Offline())
	assert.Equal(t, "guest-token", store.Token())
}

func TestEnsureGuest_OfflineFallback(t *testing.T) {
	store := NewSessionStore()
	// Point at a closed port so the transport fails.
	c := New("http://127.0.0.1:1", store)
	c.HTTP.Timeout = 200 * time.Millisecond

	id, err := store.EnsureGuest(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, id.Offline())
	assert.True(t, id.Guest())
	assert.Contains(t, id.UserID, "offline-guest-")
	assert.Empty(t, store.Token(), "offline guests carry no bearer token")
}

func TestEnsureGuest_KeepsExistingIdentity(t *testing.T) {
	srv := guestServer(t)
	store := NewSessionStore()
	store.SetIdentity(&Identity{Token: "tok", UserID: "user-1", Role: "user"})
	c := New(srv.URL, store)

	id, err := store.EnsureGuest(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
}

func TestGuestIdentityExpires(t *testing.T) {
	store := NewSessionStore()
	store.SetIdentity(&Identity{Token: "tok", UserID: "guest-1", Role: "guest"})
	require.NotEmpty(t, store.Token())

	store.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	assert.Empty(t, store.Token(), "guest sessions die after 24 hours")
	assert.Nil(t, store.Identity())
}

func TestFullUserIdentityDoesNotExpireLocally(t *testing.T) {
	store := NewSessionStore()
	store.SetIdentity(&Identity{Token: "tok", UserID: "user-1", Role: "user"})
	store.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	assert.NotEmpty(t, store.Token())
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Session expired. Please log in again"})
	}))
	t.Cleanup(srv.Close)

	store := NewSessionStore()
	store.SetIdentity(&Identity{Token: "dead-token", UserID: "user-1", Role: "user"})
	c := New(srv.URL, store)

	_, err := c.GetProperties(context.Background())
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindAuth, apiErr.Kind)
	assert.False(t, apiErr.Retryable())
	assert.Empty(t, store.Token(), "dead credential dropped so the UI redirects to login")
}
