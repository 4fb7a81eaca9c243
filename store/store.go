// Package store defines the persistence boundary for users and invoices.
// Ownership scoping lives here, not in the HTTP layer: every invoice read and
// write takes the owner id, and a foreign invoice is indistinguishable from a
// missing one.
package store

import (
	"context"
	"errors"
	"time"

	"invoiceflow-backend/models"
)

var (
	// ErrNotFound covers both a truly absent record and an ownership
	// mismatch; callers must not be able to tell the two apart.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey signals a unique-constraint violation (invoice number
	// or user email).
	ErrDuplicateKey = errors.New("duplicate key")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error

	// Get returns the invoice iff it exists and belongs to ownerID.
	Get(ctx context.Context, ownerID, id string) (*models.Invoice, error)

	// GetByID looks an invoice up without ownership scoping. Reserved for
	// the unauthenticated payment-redirect view and webhook logging.
	GetByID(ctx context.Context, id string) (*models.Invoice, error)

	List(ctx context.Context, ownerID string) ([]models.Invoice, error)

	// Update runs fn against the current invoice state and persists the
	// result as one atomic read-modify-write. fn returning an error aborts
	// the update and is passed through unchanged.
	Update(ctx context.Context, ownerID, id string, fn func(inv *models.Invoice) error) (*models.Invoice, error)

	Delete(ctx context.Context, ownerID, id string) error

	// MarkPaid transitions the invoice to paid with the given timestamp and
	// payment reference, but only if it is not already paid. It reports
	// whether the transition was applied; a false with nil error means the
	// invoice was already paid and nothing changed. Missing invoices return
	// ErrNotFound. The write is conditional and atomic so concurrent
	// duplicate webhook deliveries cannot interleave.
	MarkPaid(ctx context.Context, id string, paidAt time.Time, paymentRef string) (bool, error)
}
