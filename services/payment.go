package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"invoiceflow-backend/models"
	"invoiceflow-backend/store"
)

// CheckoutSession is the provider's in-progress payment attempt: an id to
// correlate later, a redirect URL for the customer, and the settlement state
// when retrieved after the fact.
type CheckoutSession struct {
	ID            string `json:"sessionId"`
	URL           string `json:"url"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

// CheckoutProvider is the slice of the payment provider the reconciliation
// engine needs. The Stripe implementation lives in the payments package.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, inv *models.Invoice) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// VerifyWebhook checks the provider signature over the raw payload.
	VerifyWebhook(payload []byte, signatureHeader string) error
	// VerificationEnabled reports whether a signing secret is configured.
	// When false the engine trusts payloads as-is; config.Validate only
	// allows that in explicitly insecure development mode.
	VerificationEnabled() bool
}

// PaymentService drives checkout-session creation and consumes provider
// webhook events to move invoices to paid, idempotently.
type PaymentService struct {
	store    store.InvoiceStore
	provider CheckoutProvider
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(s store.InvoiceStore, provider CheckoutProvider, logger zerolog.Logger) *PaymentService {
	return &PaymentService{store: s, provider: provider, logger: logger, now: time.Now}
}

// CreateCheckoutSession mints a provider session for an unpaid, owned
// invoice. It performs no invoice mutation and holds no store lock while the
// provider call is in flight.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, ownerID, invoiceID string) (*CheckoutSession, error) {
	inv, err := s.store.Get(ctx, ownerID, invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if inv.Status == models.StatusPaid {
		return nil, ErrAlreadyPaid
	}

	session, err := s.provider.CreateCheckoutSession(ctx, inv)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("invoice_id", inv.ID).
		Str("session_id", session.ID).
		Msg("checkout session created")
	return session, nil
}

// webhookEvent decodes just the fields the engine cares about from the raw
// provider payload, so unknown event shapes never fail processing.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleWebhookEvent verifies and applies one provider event. Confirmation
// events mark the referenced invoice paid through a conditional store write,
// so replays and the checkout-completed/payment-succeeded pair for the same
// payment are no-ops after the first transition: paidAt and the payment
// reference are assigned exactly once, by whichever event lands first.
// Unknown event types are logged and accepted for forward compatibility.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	if s.provider.VerificationEnabled() {
		if err := s.provider.VerifyWebhook(payload, signatureHeader); err != nil {
			s.logger.Warn().Err(err).Msg("webhook signature verification failed")
			return ErrInvalidSignature
		}
	} else {
		s.logger.Warn().Msg("webhook accepted without signature verification (insecure mode)")
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("webhook payload is not valid JSON")
		return ErrInvalidSignature
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.applyPayment(ctx, event, event.Data.Object.PaymentIntent)
	case "payment_intent.succeeded":
		return s.applyPayment(ctx, event, event.Data.Object.ID)
	case "payment_intent.payment_failed":
		// Observed only; no reversion or retry bookkeeping.
		s.logger.Warn().
			Str("event_id", event.ID).
			Str("invoice_id", event.Data.Object.Metadata["invoiceId"]).
			Msg("payment failed")
		return nil
	default:
		s.logger.Info().
			Str("event_id", event.ID).
			Str("type", event.Type).
			Msg("webhook ignored (unhandled type)")
		return nil
	}
}

func (s *PaymentService) applyPayment(ctx context.Context, event webhookEvent, paymentRef string) error {
	invoiceID := event.Data.Object.Metadata["invoiceId"]
	if invoiceID == "" {
		s.logger.Warn().
			Str("event_id", event.ID).
			Str("type", event.Type).
			Msg("confirmation event without invoiceId metadata")
		return nil
	}

	applied, err := s.store.MarkPaid(ctx, invoiceID, s.now().UTC(), paymentRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Accepted: the provider retries on non-2xx and a missing
			// invoice will never appear.
			s.logger.Warn().
				Str("event_id", event.ID).
				Str("invoice_id", invoiceID).
				Msg("confirmation event for unknown invoice")
			return nil
		}
		return err
	}

	if applied {
		s.logger.Info().
			Str("event_id", event.ID).
			Str("type", event.Type).
			Str("invoice_id", invoiceID).
			Str("payment_ref", paymentRef).
			Msg("invoice marked as paid")
	} else {
		s.logger.Info().
			Str("event_id", event.ID).
			Str("invoice_id", invoiceID).
			Msg("invoice already paid; duplicate confirmation ignored")
	}
	return nil
}

// SuccessSummary is the read-only view rendered after the customer lands on
// the success redirect. Mutation happens only via HandleWebhookEvent; the
// redirect is not guaranteed to occur at all.
type SuccessSummary struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	InvoiceId     string                `json:"invoiceId"`
	PaymentStatus string                `json:"paymentStatus,omitempty"`
	Invoice       *InvoiceStatusSummary `json:"invoice,omitempty"`
}

type InvoiceStatusSummary struct {
	InvoiceNumber string               `json:"invoiceNumber"`
	Status        models.InvoiceStatus `json:"status"`
	Total         float64              `json:"total"`
	PaidAt        *time.Time           `json:"paidAt"`
}

// ConfirmSuccess retrieves session and invoice state for display. The
// redirect landing is unauthenticated, so the invoice is rendered as a
// minimal summary rather than the full record.
func (s *PaymentService) ConfirmSuccess(ctx context.Context, invoiceID, sessionID string) (*SuccessSummary, error) {
	if invoiceID == "" || sessionID == "" {
		return &SuccessSummary{
			Success:   true,
			Message:   "Payment processed!",
			InvoiceId: invoiceID,
		}, nil
	}

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &SuccessSummary{
		InvoiceId:     invoiceID,
		PaymentStatus: session.PaymentStatus,
	}
	if session.PaymentStatus != "paid" {
		summary.Message = "Payment not completed yet."
		return summary, nil
	}

	summary.Success = true
	summary.Message = "Payment successful! Thank you for your payment."
	if inv, err := s.store.GetByID(ctx, invoiceID); err == nil {
		summary.Invoice = &InvoiceStatusSummary{
			InvoiceNumber: inv.InvoiceNumber,
			Status:        inv.Status,
			Total:         inv.Total,
			PaidAt:        inv.PaidAt,
		}
	}
	return summary, nil
}
