package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvoiceNotFound covers absent invoices and ownership mismatches
	// alike; callers cannot distinguish the two.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrAlreadyPaid rejects checkout-session creation for a paid invoice.
	ErrAlreadyPaid = errors.New("invoice is already paid")

	// ErrNumberConflict is the (astronomically rare) invoice number
	// collision rejected by the store's unique index.
	ErrNumberConflict = errors.New("invoice number already exists")

	// ErrInvalidSignature is returned when a webhook payload fails
	// signature verification; no state is mutated in that case.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// FieldError reports one failed constraint on one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level failures for a single request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
