package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveJSON(t *testing.T, status int, payload interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetProperties_EnvelopeShape(t *testing.T) {
	srv := serveJSON(t, 200, map[string]interface{}{
		"success":    true,
		"properties": []map[string]interface{}{{"title": "Flat A"}, {"title": "Flat B"}},
	})
	c := New(srv.URL, nil)
	props, err := c.GetProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "Flat A", props[0].Title)
}

func TestGetProperties_BareArrayShape(t *testing.T) {
	srv := serveJSON(t, 200, []map[string]interface{}{{"title": "Flat A"}})
	c := New(srv.URL, nil)
	props, err := c.GetProperties(context.Background())
	require.NoError(t, err)
	assert.Len(t, props, 1)
}

func TestGetProperties_DataShape(t *testing.T) {
	srv := serveJSON(t, 200, map[string]interface{}{
		"success": true,
		"data":    []map[string]interface{}{{"title": "Flat A"}},
	})
	c := New(srv.URL, nil)
	props, err := c.GetProperties(context.Background())
	require.NoError(t, err)
	assert.Len(t, props, 1)
}

func TestGetProperties_MalformedShape(t *testing.T) {
	srv := serveJSON(t, 200, map[string]interface{}{"success": true, "stuff": 42})
	c := New(srv.URL, nil)
	_, err := c.GetProperties(context.Background())
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindMalformed, apiErr.Kind)
	assert.False(t, apiErr.Retryable())
}

func TestPaymentHistory_HistoryShape(t *testing.T) {
	srv := serveJSON(t, 200, map[string]interface{}{
		"success": true,
		"history": []map[string]interface{}{{"order_id": "order_1", "status": "paid"}},
	})
	c := New(srv.URL, nil)
	recs, err := c.PaymentHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "order_1", recs[0].OrderID)
}

func TestDo_DatabaseCodedErrorIsRetryable(t *testing.T) {
	srv := serveJSON(t, 500, map[string]interface{}{
		"success": false,
		"message": "Failed to fetch properties",
		"code":    "DB_CONNECTION_ERROR",
	})
	c := New(srv.URL, nil)
	_, err := c.GetProperties(context.Background())
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransient, apiErr.Kind)
	assert.True(t, apiErr.Retryable())
	assert.Equal(t, "DB_CONNECTION_ERROR", apiErr.Code)
}

func TestDo_ValidationErrorNotRetryable(t *testing.T) {
	srv := serveJSON(t, 400, map[string]interface{}{"success": false, "message": "Invalid propertyId"})
	c := New(srv.URL, nil)
	_, err := c.CreateOrder(context.Background(), "bad", 499, "x")
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.False(t, apiErr.Retryable())
	assert.Equal(t, "Invalid propertyId", apiErr.Message)
}

func TestDo_TransportFailureIsRetryable(t *testing.T) {
	c := New("http://127.0.0.1:1", nil)
	_, err := c.GetProperties(context.Background())
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransient, apiErr.Kind)
	assert.True(t, apiErr.Retryable())
}

func TestDo_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "properties": []interface{}{}})
	}))
	t.Cleanup(srv.Close)

	store := NewSessionStore()
	store.SetIdentity(&Identity{Token: "tok-123", UserID: "user-1", Role: "user"})
	c := New(srv.URL, store)
	_, err := c.GetProperties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestGetPaymentStatus_PayerIDArrivesAsNumber(t *testing.T) {
	srv := serveJSON(t, 200, map[string]interface{}{
		"success":          true,
		"paymentStatus":    "paid",
		"isPaid":           true,
		"payerUserId":      42,
		"daysSincePayment": 3,
	})
	c := New(srv.URL, nil)
	st, err := c.GetPaymentStatus(context.Background(), "prop-1")
	require.NoError(t, err, "a numeric payer id is a shape variation, not a malformed response")
	assert.Equal(t, PayerID("42"), st.PayerUserID)
	require.NotNil(t, st.DaysSincePayment)
	assert.Equal(t, 3, *st.DaysSincePayment)
}

func TestGetPaymentStatus_PayerIDShapes(t *testing.T) {
	for name, raw := range map[string]string{
		"string": `{"payerUserId":"42"}`,
		"number": `{"payerUserId":42}`,
		"null":   `{"payerUserId":null}`,
		"absent": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			var st PaymentStatus
			require.NoError(t, json.Unmarshal([]byte(raw), &st))
			if name == "null" || name == "absent" {
				assert.Equal(t, PayerID(""), st.PayerUserID)
			} else {
				assert.Equal(t, PayerID("42"), st.PayerUserID)
			}
		})
	}
}

func TestProfileRoundTrip(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"user": map[string]interface{}{
				"userId": "user-1", "fullname": "Asha Rao", "email": "asha@example.com", "address": "12 Lake Road",
			},
		})
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, nil)
	p, err := c.UpdateProfile(context.Background(), Profile{Fullname: "Asha Rao", Email: "asha@example.com", Address: "12 Lake Road"})
	require.NoError(t, err)
	assert.Equal(t, "PUT", gotMethod)
	assert.Equal(t, "/api/user/profile", gotPath)
	assert.Equal(t, "12 Lake Road", p.Address)

	p, err = c.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GET", gotMethod)
	assert.Equal(t, "/api/user", gotPath)
	assert.Equal(t, "Asha Rao", p.Fullname)
}
