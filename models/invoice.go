package models

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"invoiceflow-backend/utils"
)

type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// Valid reports whether s is one of the known invoice statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// InvoiceItem is a single billed line. Items live inside the invoice row as a
// jsonb array so an invoice is always read and written as one document.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Invoice is the current state of a billable document. OwnerId and
// InvoiceNumber are assigned at creation and never change afterwards.
type Invoice struct {
	ID            string                           `json:"id" gorm:"primaryKey"`
	OwnerId       string                           `json:"ownerId" gorm:"not null;index"`
	InvoiceNumber string                           `json:"invoiceNumber" gorm:"uniqueIndex;not null"`
	ClientEmail   string                           `json:"clientEmail" gorm:"not null"`
	Items         datatypes.JSONSlice[InvoiceItem] `json:"items" gorm:"type:jsonb"`
	Total         float64                          `json:"total" gorm:"type:numeric(12,2)"`
	DueDate       time.Time                        `json:"dueDate" gorm:"not null"`
	Status        InvoiceStatus                    `json:"status" gorm:"type:varchar(10);not null;default:pending;index"`

	PaidAt *time.Time `json:"paidAt"`
	SentAt *time.Time `json:"sentAt"`

	// StripePaymentIntentId is set exactly once, by the webhook that confirms
	// payment. It links the invoice back to the Stripe payment for lookups.
	StripePaymentIntentId *string `json:"stripePaymentIntentId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (inv *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	return
}

// ComputeTotal sums quantity×price over the items, rounded to cents.
func ComputeTotal(items []InvoiceItem) float64 {
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.Price
	}
	return utils.Round2(total)
}

const numberSuffixCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewInvoiceNumber returns a sortable, collision-resistant invoice number of
// the form INV-<epoch-millis>-<5 uppercase alphanumerics>. Uniqueness is not
// re-checked here; the store's unique index is the authority and a collision
// surfaces as a conflict error on insert.
func NewInvoiceNumber() string {
	suffix := make([]byte, 5)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failing means the platform is broken beyond recovery.
		panic(err)
	}
	for i, b := range suffix {
		suffix[i] = numberSuffixCharset[int(b)%len(numberSuffixCharset)]
	}
	return fmt.Sprintf("INV-%d-%s", time.Now().UnixMilli(), suffix)
}
