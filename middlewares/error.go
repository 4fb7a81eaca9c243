package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"invoiceflow-backend/services"
)

// fieldMessage maps a validator tag to the client-facing message for it.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email"
	case "gt":
		return "Must be greater than " + fe.Param()
	case "min":
		return "Must have at least " + fe.Param() + " entries"
	default:
		return "Invalid value"
	}
}

// ErrorHandler centralizes error responses. Expected errors (validation,
// not-found, precondition failures) carry precise client messages; anything
// unexpected is logged and degrades to a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// DTO validation errors from BindAndValidate
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make([]services.FieldError, 0, len(ve))
		for _, fe := range ve {
			out = append(out, services.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  out,
		})
	}

	// Engine-level validation errors
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	}

	switch {
	case errors.Is(err, services.ErrInvoiceNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Invoice not found"})
	case errors.Is(err, services.ErrAlreadyPaid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invoice is already paid"})
	case errors.Is(err, services.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed signature verification"})
	case errors.Is(err, services.ErrNumberConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Invoice number collision, please retry"})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
