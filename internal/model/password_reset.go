package model

import "time"

// PasswordReset holds the keyed hash of the single outstanding reset token
// for a user. Requesting a new token overwrites the row.
type PasswordReset struct {
	UserID    string    `gorm:"column:user_id;type:varchar(36);primaryKey"`
	TokenHash string    `gorm:"column:token_hash;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (p *PasswordReset) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}
