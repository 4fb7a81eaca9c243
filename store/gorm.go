package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoiceflow-backend/models"
)

// GormStore implements UserStore and InvoiceStore on PostgreSQL via GORM.
// The *gorm.DB must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) Create(ctx context.Context, inv *models.Invoice) error {
	return translate(s.db.WithContext(ctx).Create(inv).Error)
}

func (s *GormStore) Get(ctx context.Context, ownerID, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (s *GormStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (s *GormStore) List(ctx context.Context, ownerID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Find(&invoices).Error
	if err != nil {
		return nil, translate(err)
	}
	return invoices, nil
}

// Update locks the row for the duration of a short transaction so the
// read-modify-write cannot interleave with the webhook transition.
func (s *GormStore) Update(ctx context.Context, ownerID, id string, fn func(inv *models.Invoice) error) (*models.Invoice, error) {
	var out models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			First(&inv).Error
		if err != nil {
			return translate(err)
		}
		if err := fn(&inv); err != nil {
			return err
		}
		if err := tx.Save(&inv).Error; err != nil {
			return translate(err)
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GormStore) Delete(ctx context.Context, ownerID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Invoice{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) MarkPaid(ctx context.Context, id string, paidAt time.Time, paymentRef string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND status <> ?", id, models.StatusPaid).
		Updates(map[string]any{
			"status":                   models.StatusPaid,
			"paid_at":                  paidAt,
			"stripe_payment_intent_id": paymentRef,
		})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Nothing updated: either already paid (fine) or the invoice is gone.
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	if count == 0 {
		return false, ErrNotFound
	}
	return false, nil
}
