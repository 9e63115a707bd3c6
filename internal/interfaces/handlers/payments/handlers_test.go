package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	paysvc "homilet-backend/internal/application/payments"
	"homilet-backend/internal/auth"
	"homilet-backend/internal/domain"
	"homilet-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-key-secret"

var testTokens = &auth.TokenService{Secret: "handler-test-secret"}

type fakeGateway struct{}

func (fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*paysvc.GatewayOrder, error) {
	return &paysvc.GatewayOrder{ID: "order_" + uuid.NewString()[:8], Amount: amountPaise, Currency: currency, Status: "created"}, nil
}

func setupPaymentsTest(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Payment{}))

	h := &Handlers{
		Service: &paysvc.Service{DB: db, Gateway: fakeGateway{}, KeySecret: testSecret},
		KeyID:   "rzp_test_key",
	}
	app := fiber.New()
	app.Get("/api/payments/test-db", h.TestDB)
	app.Get("/api/payments/check-status", middleware.OptionalAuth(testTokens), h.CheckStatus)
	app.Post("/api/payments/create-order", middleware.RequireFullUser(testTokens), h.CreateOrder)
	app.Post("/api/payments/verify-payment", middleware.RequireFullUser(testTokens), h.VerifyPayment)
	app.Get("/api/payments/history", middleware.RequireFullUser(testTokens), h.History)
	return app, db
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := testTokens.Issue(userID.String(), "Payer", "payer@example.com", domain.RoleUser, false)
	require.NoError(t, err)
	return "Bearer " + tok
}

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func createOrder(t *testing.T, app *fiber.App, userID, propertyID uuid.UUID) string {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"propertyId":    propertyID.String(),
		"amount":        499,
		"propertyTitle": "Test listing",
	})
	req := httptest.NewRequest("POST", "/api/payments/create-order", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, userID))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result["orderId"].(string)
}

func TestCreateOrder_ReturnsKeyID(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	body, _ := json.Marshal(map[string]interface{}{
		"propertyId": uuid.NewString(),
		"amount":     499,
	})
	req := httptest.NewRequest("POST", "/api/payments/create-order", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "rzp_test_key", result["keyId"])
	assert.NotEmpty(t, result["orderId"])
}

func TestCreateOrder_InvalidAmount(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	body, _ := json.Marshal(map[string]interface{}{"propertyId": uuid.NewString(), "amount": 0})
	req := httptest.NewRequest("POST", "/api/payments/create-order", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

type failingGateway struct{}

func (failingGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*paysvc.GatewayOrder, error) {
	return nil, errors.New("connect timeout")
}

func TestCreateOrder_GatewayDownIsNotADatabaseError(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Payment{}))

	h := &Handlers{Service: &paysvc.Service{DB: db, Gateway: failingGateway{}, KeySecret: testSecret}}
	app := fiber.New()
	app.Post("/api/payments/create-order", middleware.RequireFullUser(testTokens), h.CreateOrder)

	body, _ := json.Marshal(map[string]interface{}{"propertyId": uuid.NewString(), "amount": 499})
	req := httptest.NewRequest("POST", "/api/payments/create-order", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Nil(t, result["code"], "gateway trouble must not carry the retry-triggering database code")
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	req := httptest.NewRequest("POST", "/api/payments/create-order", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestVerifyPayment_FlowAndConflict(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	userID := uuid.New()
	propertyID := uuid.New()
	orderID := createOrder(t, app, userID, propertyID)

	verify := func(paymentID, signature string) (int, map[string]interface{}) {
		body, _ := json.Marshal(map[string]string{
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
		})
		req := httptest.NewRequest("POST", "/api/payments/verify-payment", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, userID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		return resp.StatusCode, result
	}

	code, result := verify("pay_1", sign(orderID, "pay_1"))
	assert.Equal(t, 200, code)
	assert.Equal(t, true, result["success"])

	// Second verification is a conflict the client must treat as paid state.
	code, result = verify("pay_2", sign(orderID, "pay_2"))
	assert.Equal(t, 400, code)
	assert.Equal(t, "Payment already verified", result["message"])
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	userID := uuid.New()
	orderID := createOrder(t, app, userID, uuid.New())

	body, _ := json.Marshal(map[string]string{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_x",
		"razorpay_signature":  "bogus",
	})
	req := httptest.NewRequest("POST", "/api/payments/verify-payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, userID))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCheckStatus_ServerDecidesPayer(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	payer := uuid.New()
	propertyID := uuid.New()
	orderID := createOrder(t, app, payer, propertyID)

	body, _ := json.Marshal(map[string]string{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sign(orderID, "pay_1"),
	})
	req := httptest.NewRequest("POST", "/api/payments/verify-payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, payer))
	_, err := app.Test(req)
	require.NoError(t, err)

	// Payer sees isCurrentUserPayer=true.
	req = httptest.NewRequest("GET", "/api/payments/check-status?propertyId="+propertyID.String(), nil)
	req.Header.Set("Authorization", bearer(t, payer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, true, result["isPaid"])
	assert.Equal(t, true, result["isCurrentUserPayer"])
	assert.Equal(t, payer.String(), result["payerUserId"])
	assert.EqualValues(t, 30, result["expiresIn"], "fresh payment has the full validity window left")

	// Anonymous viewer sees the paid state but not ownership.
	req = httptest.NewRequest("GET", "/api/payments/check-status?propertyId="+propertyID.String(), nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	result = map[string]interface{}{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, true, result["isPaid"])
	assert.Equal(t, false, result["isCurrentUserPayer"])
}

func TestCheckStatus_NoPayment(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	req := httptest.NewRequest("GET", "/api/payments/check-status?propertyId="+uuid.NewString(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, "none", result["paymentStatus"])
	assert.Equal(t, false, result["isPaid"])
}

func TestHistory(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	userID := uuid.New()
	createOrder(t, app, userID, uuid.New())
	createOrder(t, app, userID, uuid.New())

	req := httptest.NewRequest("GET", "/api/payments/history", nil)
	req.Header.Set("Authorization", bearer(t, userID))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	history := result["history"].([]interface{})
	assert.Len(t, history, 2)
}

func TestTestDB(t *testing.T) {
	app, _ := setupPaymentsTest(t)
	req := httptest.NewRequest("GET", "/api/payments/test-db", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, true, result["success"])
}
