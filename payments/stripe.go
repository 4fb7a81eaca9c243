// Package payments wraps the Stripe SDK behind the reconciliation engine's
// CheckoutProvider interface.
package payments

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"invoiceflow-backend/config"
	"invoiceflow-backend/models"
	"invoiceflow-backend/services"
	"invoiceflow-backend/utils"
)

// Client talks to Stripe for checkout sessions and verifies webhook
// signatures with the pre-shared signing secret.
type Client struct {
	cfg *config.Config
}

// NewClient configures the global Stripe key and a bounded HTTP client so
// outbound provider calls cannot hang a request indefinitely.
func NewClient(cfg *config.Config) *Client {
	stripe.Key = cfg.StripeSecretKey
	stripe.SetHTTPClient(&http.Client{Timeout: cfg.StripeTimeout})
	return &Client{cfg: cfg}
}

// CreateCheckoutSession builds a payment-mode Checkout Session with one line
// item per invoice item, amounts in minor currency units. The invoice id
// rides along as metadata on both the session and its payment intent so
// either confirmation event can be correlated back to the invoice.
func (c *Client) CreateCheckoutSession(ctx context.Context, inv *models.Invoice) (*services.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(inv.Items))
	for _, item := range inv.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.cfg.StripeCurrency),
				UnitAmount: stripe.Int64(utils.ToMinorUnits(item.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Description),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	metadata := map[string]string{"invoiceId": inv.ID}
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		CustomerEmail: stripe.String(inv.ClientEmail),
		SuccessURL: stripe.String(fmt.Sprintf(
			"%s/api/payments/success?invoiceId=%s&session_id={CHECKOUT_SESSION_ID}",
			c.cfg.PublicBaseURL, inv.ID)),
		CancelURL: stripe.String(fmt.Sprintf(
			"%s/api/payments/cancel?invoiceId=%s", c.cfg.PublicBaseURL, inv.ID)),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	params.Metadata = metadata

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &services.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// GetCheckoutSession retrieves a session's settlement state for the
// read-only success view.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*services.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return &services.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the signing
// secret. API version mismatches are tolerated: the Stripe CLI signs events
// with whatever version it runs, and the signature itself still binds the
// payload.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) error {
	_, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	return err
}

func (c *Client) VerificationEnabled() bool {
	return c.cfg.StripeWebhookSecret != ""
}
