package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"invoiceflow-backend/config"
	"invoiceflow-backend/controllers"
	"invoiceflow-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, db *gorm.DB,
	auth *controllers.AuthController,
	invoices *controllers.InvoiceController,
	payments *controllers.PaymentController,
) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/auth/signup", auth.Signup)
	api.Post("/auth/signin", auth.Signin)

	// Public payment endpoints: the webhook authenticates via its provider
	// signature, and success/cancel are redirect landings.
	api.Post("/payments/webhook", payments.Webhook)
	api.Get("/payments/success", payments.Success)
	api.Get("/payments/cancel", payments.Cancel)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticated(cfg))

	// Idempotency guard for mutating requests
	protected.Use(middlewares.Idempotency(db))

	// Invoices
	protected.Get("/invoices", invoices.List)
	protected.Post("/invoices", invoices.Create)
	protected.Get("/invoices/:id", invoices.Get)
	protected.Put("/invoices/:id", invoices.Update)
	protected.Delete("/invoices/:id", invoices.Delete)
	protected.Post("/invoices/:id/payment-link", payments.CreatePaymentLink)
}
