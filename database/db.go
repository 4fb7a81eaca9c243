package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"invoiceflow-backend/config"
	"invoiceflow-backend/models"
)

// Connect opens the PostgreSQL connection. TranslateError turns driver
// unique-violations into gorm.ErrDuplicatedKey, which the store layer relies
// on for invoice-number and email conflicts.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Invoice{},
		&models.IdempotencyKey{},
	)
}
