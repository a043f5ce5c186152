package database

import (
	"github.com/Payphone-Digital/lms/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Company{},
		&model.Role{},
		&model.User{},
		&model.Session{},
		&model.PasswordReset{},
	); err != nil {
		return err
	}
	return CreateIndexes(db)
}
