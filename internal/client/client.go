package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"homilet-backend/internal/domain"
)

const (
	defaultTimeout = 12 * time.Second
	submitTimeout  = 15 * time.Second
)

// Client is the browser-side API consumer: it carries the bearer token from
// the session store and normalizes the server's response envelopes.
type Client struct {
	BaseURL  string
	Session  *SessionStore
	HTTP     *http.Client
	slowHTTP *http.Client
}

func New(baseURL string, session *SessionStore) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Session:  session,
		HTTP:     &http.Client{Timeout: defaultTimeout},
		slowHTTP: &http.Client{Timeout: submitTimeout},
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

// do runs one request and classifies any failure. Payment and contact
// submissions get the longer timeout.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "could not encode request", Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: "could not build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Session != nil {
		if token := c.Session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpClient := c.HTTP
	if strings.HasPrefix(path, "/api/payments") || strings.HasPrefix(path, "/api/contact-agent") {
		httpClient = c.slowHTTP
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindTransient, Message: "network request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransient, StatusCode: resp.StatusCode, Message: "could not read response", Err: err}
	}

	if resp.StatusCode == 401 {
		// Credential is dead; the session store drops it so the UI can
		// redirect to login. Never retried.
		if c.Session != nil {
			c.Session.Clear()
		}
		return &APIError{Kind: KindAuth, StatusCode: 401, Message: messageFrom(raw, "Session expired. Please log in again")}
	}
	if resp.StatusCode >= 400 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    messageFrom(raw, fmt.Sprintf("request failed with status %d", resp.StatusCode)),
		}
		switch {
		case resp.StatusCode >= 500:
			apiErr.Kind = KindTransient
		case strings.Contains(strings.ToLower(apiErr.Message), "already"):
			apiErr.Kind = KindConflict
		default:
			apiErr.Kind = KindValidation
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &APIError{Kind: KindMalformed, StatusCode: resp.StatusCode, Message: "unexpected response shape", Err: err}
		}
	}
	return nil
}

func messageFrom(raw []byte, fallback string) string {
	var env envelope
	if json.Unmarshal(raw, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return fallback
}

// decodeList tolerates the three list shapes the API has shipped over time:
// a bare array, {data: [...]}, or a named field like {properties: [...]}.
func decodeList(raw json.RawMessage, named string, out interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty response")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	for _, key := range []string{named, "data"} {
		if inner, ok := wrapper[key]; ok {
			return json.Unmarshal(inner, out)
		}
	}
	return fmt.Errorf("no %q or data field in response", named)
}

// GetProperties fetches the full listing collection.
func (c *Client) GetProperties(ctx context.Context) ([]domain.Property, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/properties", nil, &raw); err != nil {
		return nil, err
	}
	var props []domain.Property
	if err := decodeList(raw, "properties", &props); err != nil {
		return nil, &APIError{Kind: KindMalformed, Message: "unexpected properties response", Err: err}
	}
	return props, nil
}

// SearchProperties runs a server-side search.
func (c *Client) SearchProperties(ctx context.Context, query, category string) ([]domain.Property, error) {
	path := "/api/properties/search?query=" + urlQueryEscape(query)
	if category != "" {
		path += "&category=" + urlQueryEscape(category)
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	var props []domain.Property
	if err := decodeList(raw, "properties", &props); err != nil {
		return nil, &APIError{Kind: KindMalformed, Message: "unexpected search response", Err: err}
	}
	return props, nil
}

// PayerID is the payer's user identifier as reported by the server. Different
// endpoints have shipped it as a JSON string, a bare number, or null, so it
// decodes all three and normalizes to a string for identity comparison.
type PayerID string

func (p *PayerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PayerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PayerID(n.String())
	return nil
}

// PaymentStatus is the reconciled payment view for one property.
type PaymentStatus struct {
	Success            bool            `json:"success"`
	PaymentStatus      string          `json:"paymentStatus"`
	IsPaid             bool            `json:"isPaid"`
	IsCurrentUserPayer bool            `json:"isCurrentUserPayer"`
	PayerUserID        PayerID         `json:"payerUserId"`
	DaysSincePayment   *int            `json:"daysSincePayment"`
	ExpiresIn          *int            `json:"expiresIn"`
	PaymentInfo        *domain.Payment `json:"paymentInfo"`
}

// GetPaymentStatus fetches the server-authoritative payment state.
func (c *Client) GetPaymentStatus(ctx context.Context, propertyID string) (*PaymentStatus, error) {
	var st PaymentStatus
	if err := c.do(ctx, http.MethodGet, "/api/payments/check-status?propertyId="+urlQueryEscape(propertyID), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Order is the gateway order handed to the checkout widget.
type Order struct {
	OrderID  string  `json:"orderId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"keyId"`
}

// CreateOrder opens a listing-fee order.
func (c *Client) CreateOrder(ctx context.Context, propertyID string, amount float64, propertyTitle string) (*Order, error) {
	var order Order
	err := c.do(ctx, http.MethodPost, "/api/payments/create-order", map[string]interface{}{
		"propertyId":    propertyID,
		"amount":        amount,
		"propertyTitle": propertyTitle,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPayment submits the gateway callback triple for verification.
func (c *Client) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error {
	return c.do(ctx, http.MethodPost, "/api/payments/verify-payment", map[string]string{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  signature,
	}, nil)
}

// PaymentHistory lists the user's payments, tolerating both the {history}
// envelope and a bare array.
func (c *Client) PaymentHistory(ctx context.Context) ([]domain.Payment, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/payments/history", nil, &raw); err != nil {
		return nil, err
	}
	var recs []domain.Payment
	if err := decodeList(raw, "history", &recs); err != nil {
		return nil, &APIError{Kind: KindMalformed, Message: "unexpected history response", Err: err}
	}
	return recs, nil
}

// GuestLogin obtains a 24-hour guest identity from the server.
func (c *Client) GuestLogin(ctx context.Context) (*Identity, error) {
	var result struct {
		Token string `json:"token"`
		User  struct {
			UserID   string `json:"userId"`
			Fullname string `json:"fullname"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/guest-login", map[string]string{}, &result); err != nil {
		return nil, err
	}
	return &Identity{
		Token:    result.Token,
		UserID:   result.User.UserID,
		Fullname: result.User.Fullname,
		Email:    result.User.Email,
		Role:     result.User.Role,
		IssuedAt: time.Now(),
	}, nil
}

// Profile is the signed-in account as the profile page edits it.
type Profile struct {
	UserID   string `json:"userId"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

// GetProfile fetches the signed-in account.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var result struct {
		User Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// UpdateProfile saves profile edits and returns the stored account.
func (c *Client) UpdateProfile(ctx context.Context, p Profile) (*Profile, error) {
	var result struct {
		User Profile `json:"user"`
	}
	err := c.do(ctx, http.MethodPut, "/api/user/profile", map[string]string{
		"fullname": p.Fullname,
		"email":    p.Email,
		"mobile":   p.Mobile,
		"address":  p.Address,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.User, nil
}

// ContactAgent submits an inquiry about a listing.
func (c *Client) ContactAgent(ctx context.Context, propertyID, name, email, phone, message string) error {
	return c.do(ctx, http.MethodPost, "/api/contact-agent", map[string]string{
		"propertyId": propertyID,
		"name":       name,
		"email":      email,
		"phone":      phone,
		"message":    message,
	}, nil)
}

func urlQueryEscape(s string) string {
	return url.QueryEscape(s)
}
