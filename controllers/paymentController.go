package controllers

import (
	"github.com/gofiber/fiber/v2"

	"invoiceflow-backend/services"
)

// PaymentController exposes the reconciliation engine: payment-link minting
// on the authenticated path, webhook consumption and the redirect landings on
// the public path.
type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// CreatePaymentLink mints a checkout session for one of the caller's unpaid
// invoices and returns the provider redirect URL.
func (pc *PaymentController) CreatePaymentLink(c *fiber.Ctx) error {
	session, err := pc.payments.CreateCheckoutSession(c.Context(), ownerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"url": session.URL, "sessionId": session.ID})
}

// Webhook consumes a provider event. The raw body is passed untouched so the
// signature verification sees exactly the bytes the provider signed.
func (pc *PaymentController) Webhook(c *fiber.Ctx) error {
	err := pc.payments.HandleWebhookEvent(c.Context(), c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}

// Success is where customers land after paying. Read-only: the webhook is
// the authoritative mutation path, this just reports current state.
func (pc *PaymentController) Success(c *fiber.Ctx) error {
	summary, err := pc.payments.ConfirmSuccess(c.Context(), c.Query("invoiceId"), c.Query("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// Cancel is where customers land if they abandon checkout.
func (pc *PaymentController) Cancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   false,
		"message":   "Payment was cancelled. You can try again anytime.",
		"invoiceId": c.Query("invoiceId"),
	})
}
