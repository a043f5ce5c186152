package database

import (
	"github.com/Payphone-Digital/lms/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sessionIndexes back the hot session queries: the active-session listing and
// revoke-all both filter on user and revoked state, and the janitor scans by
// expiry.
var sessionIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_sessions_user_active ON sessions(user_id, expires_at) WHERE revoked = false",
	"CREATE INDEX IF NOT EXISTS idx_sessions_revoked_expires ON sessions(revoked, expires_at)",
}

// CreateIndexes adds the partial and composite indexes gorm tags cannot
// express. A failed index is logged and skipped.
func CreateIndexes(db *gorm.DB) error {
	for _, indexSQL := range sessionIndexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			logger.GetLogger().Warn("Failed to create index",
				zap.String("sql", indexSQL),
				zap.Error(err),
			)
		}
	}
	return nil
}
