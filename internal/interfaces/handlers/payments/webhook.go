package payments

import (
	"encoding/json"
	"fmt"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/application/settlement"
	"proptoken-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/datatypes"
)

// IdentityMetadataKey names the payment intent metadata entry carrying the
// ledger identity whose wallet the payment tops up.
const IdentityMetadataKey = "ledger_identity"

type WebhookHandler struct {
	Wallets       *settlement.WalletService
	WebhookSecret string
}

// HandleWebhook POST /api/v1/stripe/webhook: raw body, signature verification, then process.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(400).SendString("Webhook Error: empty body")
	}
	if wh.WebhookSecret == "" || sig == "" {
		log.Warn().Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook signature verification failed")
		return c.Status(400).SendString("Webhook Error: missing signature or secret")
	}

	event, err := webhook.ConstructEventWithOptions(rawBody, sig, wh.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Stripe webhook signature verification failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	if event.Type == stripe.EventTypePaymentIntentSucceeded && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return c.Status(200).SendString("ok")
		}
		if err := wh.handlePaymentIntentSucceeded(c, &pi, event.ID, event.Data.Raw); err != nil {
			// Rejected payments are acknowledged; anything else is retried by Stripe.
			if _, rejected := ledger.KindOf(err); !rejected {
				log.Error().Err(err).Str("payment_intent", pi.ID).Msg("Stripe payment credit failed")
				return c.Status(500).SendString("Webhook Error: payment not recorded")
			}
			log.Warn().Err(err).Str("payment_intent", pi.ID).Msg("Stripe payment not credited")
		}
	}

	return c.Status(200).SendString("ok")
}

func (wh *WebhookHandler) handlePaymentIntentSucceeded(c *fiber.Ctx, pi *stripe.PaymentIntent, eventID string, raw []byte) error {
	identity := pi.Metadata[IdentityMetadataKey]
	if identity == "" || pi.AmountReceived <= 0 {
		return nil
	}
	credited, err := wh.Wallets.CreditPayment(c.UserContext(), domain.Payment{
		StripePaymentIntentID: pi.ID,
		StripeEventID:         eventID,
		Identity:              identity,
		AmountReceived:        uint64(pi.AmountReceived),
		Currency:              string(pi.Currency),
		Status:                string(pi.Status),
		RawPaymentIntent:      datatypes.JSON(raw),
	})
	if err != nil {
		return err
	}
	if credited {
		log.Info().Str("payment_intent", pi.ID).Str("identity", identity).Int64("amount", pi.AmountReceived).Msg("Wallet credited from Stripe payment")
	}
	return nil
}
