package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ReconcileInterval is how often a mounted listing re-checks its payment
// state against the server.
const ReconcileInterval = 5 * time.Minute

// Payment display states for a listing card.
const (
	StateChecking  = "checking"
	StatePayable   = "payable"
	StateCompleted = "completed"
	StateSoldOut   = "sold_out"
	StateRenewal   = "renewal_available"
)

// PaymentView is what the listing card renders.
type PaymentView struct {
	State              string
	Label              string
	IsPaid             bool
	IsCurrentUserPayer bool
	DaysSincePayment   int
	DaysRemaining      int
}

// validityDays mirrors the server's 30-day payment window; used only when the
// server omits both expiresIn and daysSincePayment.
const validityDays = 30

func daysSince(st *PaymentStatus) int {
	if st.DaysSincePayment != nil {
		return *st.DaysSincePayment
	}
	return 0
}

// daysRemaining prefers the server's expiresIn, then derives from the payment
// age, then assumes a full window.
func daysRemaining(st *PaymentStatus) int {
	if st.ExpiresIn != nil {
		return *st.ExpiresIn
	}
	if st.DaysSincePayment != nil {
		return validityDays - *st.DaysSincePayment
	}
	return validityDays
}

// DisplayView maps the server's answer to a card state. The server's
// isCurrentUserPayer flag is authoritative; comparing payerUserId against
// the local identity is kept as a fallback for older responses that omit it.
func DisplayView(st *PaymentStatus, localUserID string) PaymentView {
	if st == nil {
		return PaymentView{State: StateChecking, Label: "Checking payment status..."}
	}

	isPayer := st.IsCurrentUserPayer
	if !isPayer && localUserID != "" && string(st.PayerUserID) == localUserID {
		isPayer = true
	}

	switch {
	case st.PaymentStatus == "expired":
		return PaymentView{
			State:            StateRenewal,
			Label:            "Listing expired. Renew to keep it visible",
			DaysSincePayment: daysSince(st),
		}
	case st.IsPaid && isPayer:
		remaining := daysRemaining(st)
		return PaymentView{
			State:              StateCompleted,
			Label:              fmt.Sprintf("Payment completed, %d days remaining", remaining),
			IsPaid:             true,
			IsCurrentUserPayer: true,
			DaysSincePayment:   daysSince(st),
			DaysRemaining:      remaining,
		}
	case st.IsPaid:
		return PaymentView{
			State:            StateSoldOut,
			Label:            "Sold out",
			IsPaid:           true,
			DaysSincePayment: daysSince(st),
		}
	default:
		return PaymentView{State: StatePayable, Label: "Pay to publish this listing"}
	}
}

// Reconciler polls payment status for one property while its view is mounted.
type Reconciler struct {
	Client   *Client
	Interval time.Duration // zero means ReconcileInterval
	OnUpdate func(propertyID string, view PaymentView)

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func (r *Reconciler) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return ReconcileInterval
}

// Watch begins polling the property: one immediate check, then one per
// interval until Unwatch or ctx ends. Watching an already-watched property
// restarts its loop.
func (r *Reconciler) Watch(ctx context.Context, propertyID string) {
	r.mu.Lock()
	if r.cancels == nil {
		r.cancels = make(map[string]context.CancelFunc)
	}
	if cancel, ok := r.cancels[propertyID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancels[propertyID] = cancel
	r.mu.Unlock()

	go r.loop(ctx, propertyID)
}

// Refresh runs one status check outside the polling schedule. The checkout
// flow calls it after a verified payment so the card flips to paid at once
// instead of waiting out the current interval.
func (r *Reconciler) Refresh(ctx context.Context, propertyID string) {
	r.check(ctx, propertyID)
}

// Unwatch stops polling the property (view unmounted).
func (r *Reconciler) Unwatch(propertyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[propertyID]; ok {
		cancel()
		delete(r.cancels, propertyID)
	}
}

// Stop halts every poll loop.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cancel := range r.cancels {
		cancel()
		delete(r.cancels, id)
	}
}

func (r *Reconciler) loop(ctx context.Context, propertyID string) {
	r.check(ctx, propertyID)
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.check(ctx, propertyID)
		}
	}
}

func (r *Reconciler) check(ctx context.Context, propertyID string) {
	st, err := r.Client.GetPaymentStatus(ctx, propertyID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Poll failures keep the previous view; next tick tries again.
		log.Debug().Err(err).Str("property_id", propertyID).Msg("payment status poll failed")
		return
	}

	localUserID := ""
	if r.Client.Session != nil {
		if id := r.Client.Session.Identity(); id != nil {
			localUserID = id.UserID
		}
	}
	if r.OnUpdate != nil {
		r.OnUpdate(propertyID, DisplayView(st, localUserID))
	}
}
