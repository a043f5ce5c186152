package database

import (
	"errors"
	"strings"
	"time"

	"github.com/Payphone-Digital/lms/config"
	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/Payphone-Digital/lms/internal/model"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultRoles are created on every start if missing.
var DefaultRoles = []string{constants.RoleAdmin, constants.RoleLearner}

// Seed creates the default company, the default roles and, when a password is
// configured, the first administrator. It is safe to run repeatedly.
func Seed(db *gorm.DB, cfg config.SeedConfig, bcryptCost int) error {
	company, err := SeedCompany(db, cfg.CompanyName)
	if err != nil {
		return err
	}

	roles, err := SeedRoles(db)
	if err != nil {
		return err
	}

	if cfg.AdminPassword == "" {
		logger.GetLogger().Info("Admin seeding skipped, no password configured")
		return nil
	}
	return SeedAdmin(db, cfg, company.ID, roles[constants.RoleAdmin].ID, bcryptCost)
}

// SeedCompany returns the company with the given name, creating it if needed.
func SeedCompany(db *gorm.DB, name string) (*model.Company, error) {
	company := model.Company{Name: name}
	if err := db.Where("name = ?", name).FirstOrCreate(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// SeedRoles ensures every default role exists and returns them by name.
func SeedRoles(db *gorm.DB) (map[string]*model.Role, error) {
	roles := make(map[string]*model.Role, len(DefaultRoles))
	for _, name := range DefaultRoles {
		role := model.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return nil, err
		}
		roles[name] = &role
	}
	return roles, nil
}

// SeedAdmin creates the admin user if the email is not registered yet.
func SeedAdmin(db *gorm.DB, cfg config.SeedConfig, companyID, roleID string, bcryptCost int) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	var existingUser model.User
	result := db.Where("email = ?", email).First(&existingUser)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcryptCost)
	if err != nil {
		return err
	}

	hash := string(hashedPassword)
	now := time.Now().UTC()
	user := model.User{
		Name:          cfg.AdminName,
		Email:         email,
		PasswordHash:  &hash,
		PasswordSetAt: &now,
		RoleID:        roleID,
		CompanyID:     companyID,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("Admin user seeded", zap.String("email", email))
	return nil
}
