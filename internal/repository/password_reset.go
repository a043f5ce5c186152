package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/lms/internal/model"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Upsert replaces any outstanding reset for the user, so only the newest
// token is ever valid.
func (r *PasswordResetRepository) Upsert(ctx context.Context, reset *model.PasswordReset) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Upsert")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "expires_at", "updated_at"}),
	}).Create(reset)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to store password reset").
			String("target_user_id", reset.UserID).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Password reset stored").
		String("target_user_id", reset.UserID).
		Duration(duration).
		Log()

	return nil
}

func (r *PasswordResetRepository) GetByUserID(ctx context.Context, userID string) (*model.PasswordReset, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByUserID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var reset model.PasswordReset
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&reset).Error; err != nil {
		logger.DebugWithContext(ctx, "Password reset lookup failed").
			String("target_user_id", userID).
			Err(err).
			Log()
		return nil, err
	}

	return &reset, nil
}

func (r *PasswordResetRepository) DeleteByUserID(ctx context.Context, userID string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteByUserID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PasswordReset{}).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete password reset").
			String("target_user_id", userID).
			Err(err).
			Log()
		return err
	}

	return nil
}

// DeleteExpired removes reset rows whose expiry has passed.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteExpired")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.PasswordReset{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to purge expired password resets").
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "Expired password resets purged").
		Int64("deleted_count", result.RowsAffected).
		Log()

	return result.RowsAffected, nil
}
