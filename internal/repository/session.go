package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/lms/internal/model"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(session)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create session").
			String("target_user_id", session.UserID).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Session created").
		String("session_id", session.ID).
		String("target_user_id", session.UserID).
		Duration(duration).
		Log()

	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var session model.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		logger.DebugWithContext(ctx, "Session lookup failed").
			String("session_id", id).
			Err(err).
			Log()
		return nil, err
	}

	return &session, nil
}

// SetRefreshTokenHash back-fills the digest once the refresh token is signed.
func (r *SessionRepository) SetRefreshTokenHash(ctx context.Context, id string, hash string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SetRefreshTokenHash")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Model(&model.Session{}).Where("id = ?", id).Update("refresh_token_hash", hash)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to store refresh token hash").
			String("session_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Revoke flips a live session to revoked. It returns false when the session
// was already revoked or does not exist, so concurrent callers racing on the
// same row see exactly one winner.
func (r *SessionRepository) Revoke(ctx context.Context, id string, reason string) (bool, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Revoke")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND revoked = ?", id, false).
		Updates(map[string]interface{}{
			"revoked":        true,
			"revoked_at":     now,
			"revoked_reason": reason,
		})

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke session").
			String("session_id", id).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	logger.DebugWithContext(ctx, "Session revoke attempted").
		String("session_id", id).
		String("reason", reason).
		Bool("revoked", result.RowsAffected == 1).
		Log()

	return result.RowsAffected == 1, nil
}

// RevokeAllByUser revokes every live session of the user.
func (r *SessionRepository) RevokeAllByUser(ctx context.Context, userID string, reason string) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeAllByUser")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]interface{}{
			"revoked":        true,
			"revoked_at":     now,
			"revoked_reason": reason,
		})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke user sessions").
			String("target_user_id", userID).
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "User sessions revoked").
		String("target_user_id", userID).
		String("reason", reason).
		Int64("revoked_count", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected, nil
}

// ListActiveByUser returns non-revoked, unexpired sessions, newest first.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]model.Session, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ListActiveByUser")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list sessions").
			String("target_user_id", userID).
			Err(err).
			Log()
		return nil, err
	}

	return sessions, nil
}

// DeleteExpiredBefore purges sessions, revoked or not, that expired before cutoff.
func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteExpiredBefore")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&model.Session{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to purge expired sessions").
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "Expired sessions purged").
		Int64("deleted_count", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected, nil
}
