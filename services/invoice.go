// Package services holds the invoice lifecycle and payment reconciliation
// engines. Both operate on the store interfaces and know nothing about HTTP.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"invoiceflow-backend/models"
	"invoiceflow-backend/store"
)

// InvoiceService enforces creation rules, ownership checks, field-update
// rules and status monotonicity for invoices.
type InvoiceService struct {
	store  store.InvoiceStore
	logger zerolog.Logger
}

func NewInvoiceService(s store.InvoiceStore, logger zerolog.Logger) *InvoiceService {
	return &InvoiceService{store: s, logger: logger}
}

type CreateInvoiceParams struct {
	ClientEmail string
	Items       []models.InvoiceItem
	DueDate     time.Time
}

// UpdateInvoiceParams carries the subset of fields a PUT provided; nil fields
// are left untouched.
type UpdateInvoiceParams struct {
	ClientEmail *string
	Items       []models.InvoiceItem
	DueDate     *time.Time
	Status      *models.InvoiceStatus
}

func validateEmail(verr *ValidationError, field, email string) {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		verr.add(field, "Must be a valid email")
	}
}

func validateItems(verr *ValidationError, items []models.InvoiceItem) {
	if len(items) == 0 {
		verr.add("items", "At least one item is required")
		return
	}
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			verr.add(fmt.Sprintf("items.%d.description", i), "Description is required")
		}
		if item.Quantity <= 0 {
			verr.add(fmt.Sprintf("items.%d.quantity", i), "Quantity must be positive")
		}
		if item.Price <= 0 {
			verr.add(fmt.Sprintf("items.%d.price", i), "Price must be positive")
		}
	}
}

// Create validates the request, derives total and invoice number, and
// persists a new pending invoice. The generated number is not pre-checked for
// uniqueness; the store's unique index is the authority.
func (s *InvoiceService) Create(ctx context.Context, ownerID string, p CreateInvoiceParams) (*models.Invoice, error) {
	verr := &ValidationError{}
	validateEmail(verr, "clientEmail", p.ClientEmail)
	validateItems(verr, p.Items)
	if p.DueDate.IsZero() {
		verr.add("dueDate", "Must be a valid ISO date")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		OwnerId:       ownerID,
		InvoiceNumber: models.NewInvoiceNumber(),
		ClientEmail:   strings.TrimSpace(p.ClientEmail),
		Items:         p.Items,
		Total:         models.ComputeTotal(p.Items),
		DueDate:       p.DueDate,
		Status:        models.StatusPending,
	}
	if err := s.store.Create(ctx, inv); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrNumberConflict
		}
		return nil, err
	}

	s.logger.Info().
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Str("owner_id", ownerID).
		Msg("invoice created")
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, ownerID, id string) (*models.Invoice, error) {
	inv, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (s *InvoiceService) List(ctx context.Context, ownerID string) ([]models.Invoice, error) {
	return s.store.List(ctx, ownerID)
}

// Update applies the provided fields after re-validating each with the same
// constraints as Create. Total is recomputed whenever items change. Status
// may only be edited between pending and overdue: "paid" belongs to the
// reconciliation engine alone, and a paid invoice's status is frozen.
func (s *InvoiceService) Update(ctx context.Context, ownerID, id string, p UpdateInvoiceParams) (*models.Invoice, error) {
	verr := &ValidationError{}
	if p.ClientEmail != nil {
		validateEmail(verr, "clientEmail", *p.ClientEmail)
	}
	if p.Items != nil {
		validateItems(verr, p.Items)
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		verr.add("dueDate", "Must be a valid ISO date")
	}
	if p.Status != nil {
		switch *p.Status {
		case models.StatusPending, models.StatusOverdue:
		case models.StatusPaid:
			verr.add("status", "Status paid is set by payment confirmation only")
		default:
			verr.add("status", "Must be one of pending or overdue")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	inv, err := s.store.Update(ctx, ownerID, id, func(inv *models.Invoice) error {
		if p.Status != nil && inv.Status == models.StatusPaid {
			werr := &ValidationError{}
			werr.add("status", "A paid invoice's status cannot change")
			return werr
		}
		if p.ClientEmail != nil {
			inv.ClientEmail = strings.TrimSpace(*p.ClientEmail)
		}
		if p.Items != nil {
			inv.Items = p.Items
			inv.Total = models.ComputeTotal(p.Items)
		}
		if p.DueDate != nil {
			inv.DueDate = *p.DueDate
		}
		if p.Status != nil {
			inv.Status = *p.Status
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (s *InvoiceService) Delete(ctx context.Context, ownerID, id string) error {
	err := s.store.Delete(ctx, ownerID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvoiceNotFound
	}
	return err
}
