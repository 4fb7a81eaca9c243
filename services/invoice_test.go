package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"invoiceflow-backend/models"
	"invoiceflow-backend/store"
)

func newInvoiceService(s store.InvoiceStore) *InvoiceService {
	return NewInvoiceService(s, zerolog.Nop())
}

func createParams() CreateInvoiceParams {
	return CreateInvoiceParams{
		ClientEmail: "client@example.com",
		Items: []models.InvoiceItem{
			{Description: "Design", Quantity: 2, Price: 150},
			{Description: "Dev", Quantity: 1, Price: 500},
		},
		DueDate: time.Now().Add(14 * 24 * time.Hour),
	}
}

func fieldFor(t *testing.T, err error, field string) FieldError {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	for _, f := range verr.Fields {
		if f.Field == field {
			return f
		}
	}
	t.Fatalf("no error for field %q in %v", field, verr.Fields)
	return FieldError{}
}

func TestInvoiceService_Create(t *testing.T) {
	t.Parallel()

	svc := newInvoiceService(store.NewMemoryStore())
	inv, err := svc.Create(context.Background(), "owner-1", createParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if inv.Total != 800 {
		t.Errorf("total = %v, want 800", inv.Total)
	}
	if inv.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", inv.Status)
	}
	if inv.OwnerId != "owner-1" {
		t.Errorf("ownerId = %s, want owner-1", inv.OwnerId)
	}
	if ok, _ := regexp.MatchString(`^INV-\d{13}-[0-9A-Z]{5}$`, inv.InvoiceNumber); !ok {
		t.Errorf("invoice number %q has wrong format", inv.InvoiceNumber)
	}
	if inv.PaidAt != nil {
		t.Error("paidAt set on a pending invoice")
	}
}

func TestInvoiceService_Create_Validation(t *testing.T) {
	t.Parallel()

	svc := newInvoiceService(store.NewMemoryStore())
	ctx := context.Background()

	p := createParams()
	p.ClientEmail = "not-an-email"
	fieldFor(t, mustFail(t, svc, ctx, p), "clientEmail")

	p = createParams()
	p.Items = nil
	fieldFor(t, mustFail(t, svc, ctx, p), "items")

	p = createParams()
	p.Items[0].Quantity = 0
	fieldFor(t, mustFail(t, svc, ctx, p), "items.0.quantity")

	p = createParams()
	p.Items[1].Price = -5
	fieldFor(t, mustFail(t, svc, ctx, p), "items.1.price")

	p = createParams()
	p.Items[0].Description = "  "
	fieldFor(t, mustFail(t, svc, ctx, p), "items.0.description")

	p = createParams()
	p.DueDate = time.Time{}
	fieldFor(t, mustFail(t, svc, ctx, p), "dueDate")
}

func mustFail(t *testing.T, svc *InvoiceService, ctx context.Context, p CreateInvoiceParams) error {
	t.Helper()
	_, err := svc.Create(ctx, "owner-1", p)
	if err == nil {
		t.Fatal("Create succeeded, want validation error")
	}
	return err
}

// collidingStore forces the unique-index failure path.
type collidingStore struct {
	*store.MemoryStore
}

func (s *collidingStore) Create(ctx context.Context, inv *models.Invoice) error {
	return store.ErrDuplicateKey
}

func TestInvoiceService_Create_NumberCollision(t *testing.T) {
	t.Parallel()

	svc := newInvoiceService(&collidingStore{store.NewMemoryStore()})
	_, err := svc.Create(context.Background(), "owner-1", createParams())
	if !errors.Is(err, ErrNumberConflict) {
		t.Errorf("err = %v, want ErrNumberConflict", err)
	}
}

func TestInvoiceService_CrossOwnerIndistinguishable(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newInvoiceService(st)
	ctx := context.Background()

	inv, err := svc.Create(ctx, "owner-1", createParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for name, id := range map[string]string{"foreign": inv.ID, "missing": "no-such-id"} {
		if _, err := svc.Get(ctx, "owner-2", id); !errors.Is(err, ErrInvoiceNotFound) {
			t.Errorf("Get %s: err = %v, want ErrInvoiceNotFound", name, err)
		}
		if _, err := svc.Update(ctx, "owner-2", id, UpdateInvoiceParams{}); !errors.Is(err, ErrInvoiceNotFound) {
			t.Errorf("Update %s: err = %v, want ErrInvoiceNotFound", name, err)
		}
		if err := svc.Delete(ctx, "owner-2", id); !errors.Is(err, ErrInvoiceNotFound) {
			t.Errorf("Delete %s: err = %v, want ErrInvoiceNotFound", name, err)
		}
	}
}

func TestInvoiceService_Update_RecomputesTotal(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newInvoiceService(st)
	ctx := context.Background()

	inv, err := svc.Create(ctx, "owner-1", createParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, "owner-1", inv.ID, UpdateInvoiceParams{
		Items: []models.InvoiceItem{{Description: "Audit", Quantity: 3, Price: 40}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Total != 120 {
		t.Errorf("total = %v, want 120 after item change", updated.Total)
	}
	if updated.InvoiceNumber != inv.InvoiceNumber {
		t.Error("invoice number changed on update")
	}
}

func TestInvoiceService_Update_PartialFields(t *testing.T) {
	t.Parallel()

	svc := newInvoiceService(store.NewMemoryStore())
	ctx := context.Background()

	inv, err := svc.Create(ctx, "owner-1", createParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	email := "new@example.com"
	updated, err := svc.Update(ctx, "owner-1", inv.ID, UpdateInvoiceParams{ClientEmail: &email})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ClientEmail != email {
		t.Errorf("clientEmail = %s, want %s", updated.ClientEmail, email)
	}
	if updated.Total != 800 || len(updated.Items) != 2 {
		t.Error("untouched fields changed on partial update")
	}
}

func TestInvoiceService_Update_StatusRules(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newInvoiceService(st)
	ctx := context.Background()

	inv, err := svc.Create(ctx, "owner-1", createParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// pending -> overdue is a legal manual edit.
	overdue := models.StatusOverdue
	if _, err := svc.Update(ctx, "owner-1", inv.ID, UpdateInvoiceParams{Status: &overdue}); err != nil {
		t.Fatalf("Update to overdue: %v", err)
	}

	// paid is reserved for the reconciliation engine.
	paid := models.StatusPaid
	if _, err := svc.Update(ctx, "owner-1", inv.ID, UpdateInvoiceParams{Status: &paid}); err == nil {
		t.Error("manual update to paid succeeded, want validation error")
	}

	bogus := models.InvoiceStatus("cancelled")
	if _, err := svc.Update(ctx, "owner-1", inv.ID, UpdateInvoiceParams{Status: &bogus}); err == nil {
		t.Error("update to unknown status succeeded, want validation error")
	}
}

func TestInvoiceService_Update_PaidIsFrozen(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newInvoiceService(st)
	ctx := context.Background()

	inv, err := svc.Create(ctx, "owner-1", createParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.MarkPaid(ctx, inv.ID, time.Now(), "pi_1"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	pending := models.StatusPending
	if _, err := svc.Update(ctx, "owner-1", inv.ID, UpdateInvoiceParams{Status: &pending}); err == nil {
		t.Fatal("status edit on paid invoice succeeded, want validation error")
	}

	got, err := svc.Get(ctx, "owner-1", inv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusPaid {
		t.Errorf("status = %s, want paid to stick", got.Status)
	}
}

func TestInvoiceService_Delete(t *testing.T) {
	t.Parallel()

	svc := newInvoiceService(store.NewMemoryStore())
	ctx := context.Background()

	inv, err := svc.Create(ctx, "owner-1", createParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, "owner-1", inv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "owner-1", inv.ID); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrInvoiceNotFound", err)
	}
}
