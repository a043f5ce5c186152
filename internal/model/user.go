package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Company struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Role struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// User is an identity record. PasswordHash is nil for accounts that were
// provisioned without a usable credential; PasswordSetAt nil means the user
// still has to choose a password.
type User struct {
	ID            string     `gorm:"column:id;type:varchar(36);primaryKey"`
	Name          string     `gorm:"column:name;not null"`
	Email         string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  *string    `gorm:"column:password_hash;default:null"`
	PasswordSetAt *time.Time `gorm:"column:password_set_at;default:null"`
	RoleID        string     `gorm:"column:role_id;type:varchar(36);index;not null"`
	Role          Role       `gorm:"foreignKey:RoleID"`
	CompanyID     string     `gorm:"column:company_id;type:varchar(36);index;not null"`
	Company       Company    `gorm:"foreignKey:CompanyID"`
	LastLogin     *time.Time `gorm:"column:last_login;default:null"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasPassword reports whether the user can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
