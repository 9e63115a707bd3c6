package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"homilet-backend/internal/domain"
)

// WebhookHandler processes gateway webhook callbacks. Webhooks reconcile
// payments the client-side verify call missed (closed tab, flaky network):
// the gateway retries delivery until it sees a 2xx.
type WebhookHandler struct {
	DB            *gorm.DB
	WebhookSecret string
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook POST /api/payments/webhook — raw body, signature verification, then process.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("X-Razorpay-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("payment webhook received empty body")
		return c.Status(400).SendString("Webhook Error: empty body")
	}

	if err := verifyWebhookSignature(rawBody, sig, wh.WebhookSecret); err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("payment webhook signature verification failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.Warn().Err(err).Msg("payment webhook JSON parse failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	switch event.Event {
	case "payment.captured":
		if err := wh.handleCaptured(event, rawBody); err != nil {
			// Domain errors still get a 200 so the gateway stops retrying;
			// the client-side verify path remains the source of truth.
			log.Warn().Err(err).Str("order_id", event.Payload.Payment.Entity.OrderID).Msg("payment webhook capture not applied")
		}
	case "payment.failed":
		if err := wh.handleFailed(event); err != nil {
			log.Warn().Err(err).Str("order_id", event.Payload.Payment.Entity.OrderID).Msg("payment webhook failure not applied")
		}
	}

	return c.Status(200).SendString("ok")
}

func (wh *WebhookHandler) handleCaptured(event webhookEvent, rawBody []byte) error {
	entity := event.Payload.Payment.Entity
	if entity.OrderID == "" || entity.ID == "" {
		return nil
	}

	return wh.DB.Transaction(func(tx *gorm.DB) error {
		var rec domain.Payment
		if err := tx.Where("order_id = ?", entity.OrderID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("no payment record for order")
			}
			return err
		}
		// Idempotent: the verify endpoint or a prior delivery may have
		// already marked it.
		if rec.Paid() {
			return nil
		}
		rec.PaymentID = entity.ID
		rec.Status = "paid"
		rec.RawEvent = datatypes.JSON(rawBody)
		return tx.Save(&rec).Error
	})
}

func (wh *WebhookHandler) handleFailed(event webhookEvent) error {
	entity := event.Payload.Payment.Entity
	if entity.OrderID == "" {
		return nil
	}

	// A failed attempt never downgrades a captured payment.
	return wh.DB.Model(&domain.Payment{}).
		Where("order_id = ? AND status = ?", entity.OrderID, "created").
		Update("status", "failed").Error
}

// verifyWebhookSignature checks the X-Razorpay-Signature header: a hex
// HMAC-SHA256 of the raw body under the webhook secret.
func verifyWebhookSignature(payload []byte, sigHeader, secret string) error {
	if sigHeader == "" || secret == "" {
		return errors.New("missing signature or secret")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(sigHeader), []byte(expected)) {
		return errors.New("signature mismatch")
	}
	return nil
}
