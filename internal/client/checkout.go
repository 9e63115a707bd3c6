package client

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrCheckoutCancelled is returned when the user closes the payment widget.
var ErrCheckoutCancelled = errors.New("checkout cancelled")

// CheckoutResult is the gateway callback triple the widget hands back after
// the user completes payment.
type CheckoutResult struct {
	OrderID   string
	PaymentID string
	Signature string
}

// CheckoutOpener drives the gateway's payment widget.
type CheckoutOpener interface {
	// Load prepares the widget (script injection in the browser). Called at
	// most once per flow regardless of how many payments run.
	Load(ctx context.Context) error
	// Open shows the widget for an order and blocks until the user finishes
	// or abandons it.
	Open(ctx context.Context, order *Order) (*CheckoutResult, error)
}

// Outcome states reported through OnStatus.
const (
	CheckoutCreatingOrder = "creating_order"
	CheckoutAwaitingUser  = "awaiting_user"
	CheckoutVerifying     = "verifying"
	CheckoutRetrying      = "retrying"
	CheckoutPaid          = "paid"
	CheckoutAlreadyPaid   = "already_paid"
)

// CheckoutFlow runs the listing-fee payment end to end: order creation,
// widget, verification. Order creation and verification both go through the
// bounded retry ladder; "already paid" answers at any step are adopted as
// success rather than treated as failure.
type CheckoutFlow struct {
	Client     *Client
	Opener     CheckoutOpener
	Reconciler *Reconciler // when set, refreshed as soon as a payment lands
	OnStatus   func(stage, message string)

	loadOnce sync.Once
	loadErr  error
}

func (f *CheckoutFlow) status(stage, message string) {
	if f.OnStatus != nil {
		f.OnStatus(stage, message)
	}
}

func (f *CheckoutFlow) ensureLoaded(ctx context.Context) error {
	f.loadOnce.Do(func() {
		f.loadErr = f.Opener.Load(ctx)
	})
	return f.loadErr
}

func (f *CheckoutFlow) refresh(ctx context.Context, propertyID string) {
	if f.Reconciler != nil {
		f.Reconciler.Refresh(ctx, propertyID)
	}
}

// Pay runs the full flow for one property. A nil error means the property is
// paid — either through this payment or because it already was.
func (f *CheckoutFlow) Pay(ctx context.Context, propertyID string, amount float64, propertyTitle string) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		// Rejected before anything touches the network.
		return &APIError{Kind: KindValidation, Message: "Enter a valid listing fee"}
	}

	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}

	f.status(CheckoutCreatingOrder, "Creating payment order...")
	var order *Order
	err := Retry(ctx, func(ctx context.Context) error {
		var opErr error
		order, opErr = f.Client.CreateOrder(ctx, propertyID, amount, propertyTitle)
		return opErr
	}, func(attempt int, err error) {
		f.status(CheckoutRetrying, "Connection trouble, retrying...")
	})
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.Kind == KindConflict {
			// The property already carries an active payment. That is the
			// state we wanted; adopt it.
			f.status(CheckoutAlreadyPaid, "This listing is already paid for")
			f.refresh(ctx, propertyID)
			return nil
		}
		return err
	}

	f.status(CheckoutAwaitingUser, "Complete the payment in the window")
	result, err := f.Opener.Open(ctx, order)
	if err != nil {
		return err
	}
	if result == nil {
		return ErrCheckoutCancelled
	}

	f.status(CheckoutVerifying, "Verifying payment...")
	err = Retry(ctx, func(ctx context.Context) error {
		return f.Client.VerifyPayment(ctx, result.OrderID, result.PaymentID, result.Signature)
	}, func(attempt int, err error) {
		f.status(CheckoutRetrying, "Verification hit a snag, retrying...")
	})
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.Kind == KindConflict {
			log.Info().Str("order_id", result.OrderID).Msg("payment was already verified")
			f.status(CheckoutAlreadyPaid, "Payment already verified")
			f.refresh(ctx, propertyID)
			return nil
		}
		return err
	}

	f.status(CheckoutPaid, "Payment successful")
	f.refresh(ctx, propertyID)
	return nil
}
