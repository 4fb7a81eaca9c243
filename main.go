package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"invoiceflow-backend/config"
	"invoiceflow-backend/controllers"
	"invoiceflow-backend/database"
	"invoiceflow-backend/middlewares"
	"invoiceflow-backend/payments"
	"invoiceflow-backend/routes"
	"invoiceflow-backend/services"
	"invoiceflow-backend/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(os.Stderr)

	// ---- Configuration (built once, passed by reference)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	// ---- Database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// ---- Engines
	st := store.NewGormStore(db)
	stripeClient := payments.NewClient(cfg)
	invoiceSvc := services.NewInvoiceService(st, log.With().Str("component", "invoices").Logger())
	paymentSvc := services.NewPaymentService(st, stripeClient, log.With().Str("component", "payments").Logger())

	authCtl := controllers.NewAuthController(cfg, st)
	invoiceCtl := controllers.NewInvoiceController(invoiceSvc)
	paymentCtl := controllers.NewPaymentController(paymentSvc)

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, Stripe-Signature",
	}))

	// ---- Global rate limiter
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		// Default KeyGenerator = client IP; default 429 handler is fine.
	}))

	// ---- Routes
	routes.Register(app, cfg, db, authCtl, invoiceCtl, paymentCtl)

	// ---- Start
	log.Info().Str("port", cfg.Port).Msg("API server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
