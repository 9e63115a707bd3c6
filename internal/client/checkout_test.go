package client

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedOpener struct {
	loads  int
	opens  int
	cancel bool
}

func (o *scriptedOpener) Load(ctx context.Context) error {
	o.loads++
	return nil
}

func (o *scriptedOpener) Open(ctx context.Context, order *Order) (*CheckoutResult, error) {
	o.opens++
	if o.cancel {
		return nil, ErrCheckoutCancelled
	}
	return &CheckoutResult{OrderID: order.OrderID, PaymentID: "pay_ok", Signature: "sig_ok"}, nil
}

// paymentServer scripts the create-order and verify endpoints. failVerifies
// makes the first N verify calls fail with the database-coded 500 the retry
// ladder reacts to.
func paymentServer(t *testing.T, failVerifies int) (*httptest.Server, *sync.Map) {
	t.Helper()
	var mu sync.Mutex
	verifyCalls := 0
	state := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/payments/create-order":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true, "orderId": "order_1", "amount": 499.0, "currency": "INR", "keyId": "rzp_test",
			})
		case "/api/payments/verify-payment":
			mu.Lock()
			verifyCalls++
			n := verifyCalls
			mu.Unlock()
			state.Store("verifyCalls", n)
			if n <= failVerifies {
				w.WriteHeader(500)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false, "message": "Payment verification failed", "code": "DB_CONNECTION_ERROR",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "Payment verified successfully"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, state
}

func newFlow(t *testing.T, srvURL string, opener CheckoutOpener) (*CheckoutFlow, *[]string) {
	t.Helper()
	store := NewSessionStore()
	store.SetIdentity(&Identity{Token: "tok", UserID: "user-1", Role: "user"})
	stages := &[]string{}
	var mu sync.Mutex
	return &CheckoutFlow{
		Client: New(srvURL, store),
		Opener: opener,
		OnStatus: func(stage, message string) {
			mu.Lock()
			*stages = append(*stages, stage)
			mu.Unlock()
		},
	}, stages
}

func TestCheckoutFlow_HappyPath(t *testing.T) {
	fastRetries(t)
	srv, _ := paymentServer(t, 0)
	opener := &scriptedOpener{}
	flow, stages := newFlow(t, srv.URL, opener)

	err := flow.Pay(context.Background(), "prop-1", 499, "Lakeside flat")
	require.NoError(t, err)
	assert.Equal(t, 1, opener.loads)
	assert.Equal(t, 1, opener.opens)
	assert.Equal(t, []string{CheckoutCreatingOrder, CheckoutAwaitingUser, CheckoutVerifying, CheckoutPaid}, *stages)
}

func TestCheckoutFlow_VerifyRetriesThenSucceeds(t *testing.T) {
	fastRetries(t)
	srv, state := paymentServer(t, 2)
	flow, stages := newFlow(t, srv.URL, &scriptedOpener{})

	err := flow.Pay(context.Background(), "prop-1", 499, "Lakeside flat")
	require.NoError(t, err)

	calls, _ := state.Load("verifyCalls")
	assert.Equal(t, 3, calls, "two database-coded failures then success")
	assert.Contains(t, *stages, CheckoutRetrying)
	assert.Equal(t, CheckoutPaid, (*stages)[len(*stages)-1])
}

func TestCheckoutFlow_VerifyLadderExhausted(t *testing.T) {
	fastRetries(t)
	srv, state := paymentServer(t, 10)
	flow, _ := newFlow(t, srv.URL, &scriptedOpener{})

	err := flow.Pay(context.Background(), "prop-1", 499, "Lakeside flat")
	require.Error(t, err)
	calls, _ := state.Load("verifyCalls")
	assert.Equal(t, 1+MaxRetries, calls)
}

func TestCheckoutFlow_AlreadyPaidOrderIsAdopted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Property already has an active payment"})
	}))
	t.Cleanup(srv.Close)
	opener := &scriptedOpener{}
	flow, stages := newFlow(t, srv.URL, opener)

	err := flow.Pay(context.Background(), "prop-1", 499, "Lakeside flat")
	require.NoError(t, err, "already-paid is adopted as success, not surfaced as failure")
	assert.Zero(t, opener.opens, "no widget when nothing to pay")
	assert.Equal(t, CheckoutAlreadyPaid, (*stages)[len(*stages)-1])
}

func TestCheckoutFlow_AlreadyVerifiedIsAdopted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/payments/create-order" {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "orderId": "order_1", "amount": 499.0, "currency": "INR"})
			return
		}
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Payment already verified"})
	}))
	t.Cleanup(srv.Close)
	flow, stages := newFlow(t, srv.URL, &scriptedOpener{})

	err := flow.Pay(context.Background(), "prop-1", 499, "Lakeside flat")
	require.NoError(t, err)
	assert.Equal(t, CheckoutAlreadyPaid, (*stages)[len(*stages)-1])
}

func TestCheckoutFlow_UserCancel(t *testing.T) {
	srv, state := paymentServer(t, 0)
	flow, _ := newFlow(t, srv.URL, &scriptedOpener{cancel: true})

	err := flow.Pay(context.Background(), "prop-1", 499, "Lakeside flat")
	assert.ErrorIs(t, err, ErrCheckoutCancelled)
	_, verified := state.Load("verifyCalls")
	assert.False(t, verified, "nothing to verify after cancel")
}

func TestCheckoutFlow_LoadIsIdempotent(t *testing.T) {
	srv, _ := paymentServer(t, 0)
	opener := &scriptedOpener{}
	flow, _ := newFlow(t, srv.URL, opener)

	require.NoError(t, flow.Pay(context.Background(), "prop-1", 499, "A"))
	require.NoError(t, flow.Pay(context.Background(), "prop-2", 499, "B"))
	assert.Equal(t, 1, opener.loads, "widget script loads once per flow")
	assert.Equal(t, 2, opener.opens)
}

func TestCheckoutFlow_RejectsBadAmountBeforeNetwork(t *testing.T) {
	opener := &scriptedOpener{}
	// Unroutable base URL: any request would fail as transient, so a
	// validation error proves nothing was sent.
	flow, _ := newFlow(t, "http://127.0.0.1:1", opener)

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		err := flow.Pay(context.Background(), "prop-1", amount, "Flat")
		require.Error(t, err, "amount=%v", amount)
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, KindValidation, apiErr.Kind, "amount=%v", amount)
	}
	assert.Zero(t, opener.loads)
	assert.Zero(t, opener.opens)
}

func TestCheckoutFlow_PaidRefreshesReconciler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/payments/create-order":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "orderId": "order_1", "amount": 499.0, "currency": "INR"})
		case "/api/payments/verify-payment":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "Payment verified successfully"})
		case "/api/payments/check-status":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true, "paymentStatus": "paid", "isPaid": true,
				"isCurrentUserPayer": true, "daysSincePayment": 0, "expiresIn": 30,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	store := NewSessionStore()
	store.SetIdentity(&Identity{Token: "tok", UserID: "user-1", Role: "user"})
	c := New(srv.URL, store)

	var mu sync.Mutex
	var views []PaymentView
	rec := &Reconciler{
		Client:   c,
		Interval: time.Hour, // no poll ticks during the test
		OnUpdate: func(propertyID string, view PaymentView) {
			mu.Lock()
			views = append(views, view)
			mu.Unlock()
		},
	}
	flow := &CheckoutFlow{Client: c, Opener: &scriptedOpener{}, Reconciler: rec}

	require.NoError(t, flow.Pay(context.Background(), "prop-1", 499, "Lakeside flat"))

	// The verified payment refreshed the card before Pay returned; no
	// waiting on the polling interval.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, views, 1)
	assert.Equal(t, StateCompleted, views[0].State)
	assert.True(t, views[0].IsPaid)
	assert.Equal(t, 30, views[0].DaysRemaining)
}
