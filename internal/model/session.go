package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is one authenticated device. Its ID is the refresh token JTI.
// Rotation revokes the row and creates a new one; a revoked row is never
// reactivated.
type Session struct {
	ID               string     `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID           string     `gorm:"column:user_id;type:varchar(36);index;not null"`
	RefreshTokenHash *string    `gorm:"column:refresh_token_hash;default:null"`
	UserAgent        string     `gorm:"column:user_agent"`
	IP               string     `gorm:"column:ip"`
	ExpiresAt        time.Time  `gorm:"column:expires_at;index;not null"`
	Revoked          bool       `gorm:"column:revoked;default:false;not null"`
	RevokedAt        *time.Time `gorm:"column:revoked_at;default:null"`
	RevokedReason    string     `gorm:"column:revoked_reason"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
