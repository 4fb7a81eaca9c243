package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoiceflow-backend/models"
)

// MemoryStore is an in-process implementation of UserStore and InvoiceStore.
// It mirrors the GormStore's semantics (ownership scoping, unique indexes,
// conditional mark-paid) and backs the engine tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User
	invoices map[string]models.Invoice
	numbers  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		invoices: make(map[string]models.Invoice),
		numbers:  make(map[string]struct{}),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateKey
		}
	}
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.Id] = *user
	return nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		out := u
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Create(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.numbers[inv.InvoiceNumber]; taken {
		return ErrDuplicateKey
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	s.numbers[inv.InvoiceNumber] = struct{}{}
	s.invoices[inv.ID] = *inv
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok || inv.OwnerId != ownerID {
		return nil, ErrNotFound
	}
	out := inv
	return &out, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := inv
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context, ownerID string) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Invoice
	for _, inv := range s.invoices {
		if inv.OwnerId == ownerID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (s *MemoryStore) Update(ctx context.Context, ownerID, id string, fn func(inv *models.Invoice) error) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.OwnerId != ownerID {
		return nil, ErrNotFound
	}
	if err := fn(&inv); err != nil {
		return nil, err
	}
	inv.UpdatedAt = time.Now()
	s.invoices[id] = inv
	out := inv
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.OwnerId != ownerID {
		return ErrNotFound
	}
	delete(s.invoices, id)
	delete(s.numbers, inv.InvoiceNumber)
	return nil
}

func (s *MemoryStore) MarkPaid(ctx context.Context, id string, paidAt time.Time, paymentRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return false, ErrNotFound
	}
	if inv.Status == models.StatusPaid {
		return false, nil
	}
	ref := paymentRef
	inv.Status = models.StatusPaid
	inv.PaidAt = &paidAt
	inv.StripePaymentIntentId = &ref
	inv.UpdatedAt = time.Now()
	s.invoices[id] = inv
	return true, nil
}
