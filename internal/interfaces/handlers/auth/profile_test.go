package auth

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerFor(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	code, result := postJSON(t, app, "/api/auth/register", map[string]string{
		"fullname": "Asha Rao",
		"email":    email,
		"password": "Str0ng!pass",
	})
	require.Equal(t, 201, code)
	return result["token"].(string)
}

func putProfile(t *testing.T, app *fiber.App, token string, payload map[string]string) (int, map[string]interface{}) {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("PUT", "/api/user/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func getProfile(t *testing.T, app *fiber.App, token string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestProfile_FetchAndUpdate(t *testing.T) {
	app, _ := setupAuthTest(t)
	token := registerFor(t, app, "asha@example.com")

	code, result := getProfile(t, app, token)
	require.Equal(t, 200, code)
	user := result["user"].(map[string]interface{})
	assert.Equal(t, "asha@example.com", user["email"])
	assert.Empty(t, user["address"])

	code, result = putProfile(t, app, token, map[string]string{
		"fullname": "Asha R Rao",
		"email":    "asha@example.com",
		"mobile":   "9876543210",
		"address":  "12 Lake Road, Pune",
	})
	require.Equal(t, 200, code)
	user = result["user"].(map[string]interface{})
	assert.Equal(t, "Asha R Rao", user["fullname"])
	assert.Equal(t, "12 Lake Road, Pune", user["address"])

	// The stored record reflects the edit, not just the response payload.
	code, result = getProfile(t, app, token)
	require.Equal(t, 200, code)
	user = result["user"].(map[string]interface{})
	assert.Equal(t, "Asha R Rao", user["fullname"])
	assert.Equal(t, "9876543210", user["mobile"])
	assert.Equal(t, "12 Lake Road, Pune", user["address"])
}

func TestProfileUpdate_EmailTaken(t *testing.T) {
	app, _ := setupAuthTest(t)
	registerFor(t, app, "first@example.com")
	token := registerFor(t, app, "second@example.com")

	code, _ := putProfile(t, app, token, map[string]string{
		"fullname": "Asha Rao",
		"email":    "first@example.com",
	})
	assert.Equal(t, 409, code)
}

func TestProfileUpdate_InvalidEmail(t *testing.T) {
	app, _ := setupAuthTest(t)
	token := registerFor(t, app, "asha@example.com")

	code, _ := putProfile(t, app, token, map[string]string{
		"fullname": "Asha Rao",
		"email":    "not-an-email",
	})
	assert.Equal(t, 400, code)
}

func TestProfile_RequiresFullUser(t *testing.T) {
	app, _ := setupAuthTest(t)

	req := httptest.NewRequest("GET", "/api/user", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	_, result := postJSON(t, app, "/api/guest-login", map[string]string{})
	guestToken := result["token"].(string)
	code, _ := getProfile(t, app, guestToken)
	assert.Equal(t, 403, code, "guest accounts have no profile")
}
