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

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID loads the user with its role and company.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Company").
		Where("id = ?", id).
		First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup by ID failed").
			String("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		String("target_user_id", id).
		Duration(duration).
		Log()

	return &user, nil
}

// GetByEmail finds user by email. The caller normalizes the address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByEmail")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Company").
		Where("email = ?", email).
		First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup by email failed").
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully by email").
		String("target_user_id", user.ID).
		Duration(duration).
		Log()

	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ExistsByEmail")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to check email existence").
			Err(err).
			Log()
		return false, err
	}

	return count > 0, nil
}

// ReferencesExist reports whether both the role and the company are present.
func (r *UserRepository) ReferencesExist(ctx context.Context, roleID, companyID string) (bool, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ReferencesExist")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var roles, companies int64
	if err := r.db.WithContext(ctx).Model(&model.Role{}).Where("id = ?", roleID).Count(&roles).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to look up role").
			String("role_id", roleID).
			Err(err).
			Log()
		return false, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Company{}).Where("id = ?", companyID).Count(&companies).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to look up company").
			String("company_id", companyID).
			Err(err).
			Log()
		return false, err
	}

	return roles > 0 && companies > 0, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		String("target_user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// UpdatePassword stores a new digest and stamps when it was set
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, setAt time.Time) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdatePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash":   passwordHash,
		"password_set_at": setAt,
	})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user password").
			String("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update password").
			String("target_user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User password updated successfully").
		String("target_user_id", id).
		Duration(duration).
		Log()

	return nil
}

// UpdateLastLogin updates the last login timestamp
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateLastLogin")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update last login").
			String("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}

// Delete removes the user after its reset row and sessions, in one transaction
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Delete")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var sessionsDeleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.PasswordReset{}).Error; err != nil {
			return err
		}

		sessions := tx.Where("user_id = ?", id).Delete(&model.Session{})
		if sessions.Error != nil {
			return sessions.Error
		}
		sessionsDeleted = sessions.RowsAffected

		result := tx.Where("id = ?", id).Delete(&model.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		logger.WarnWithContext(ctx, "Failed to delete user").
			String("target_user_id", id).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		String("target_user_id", id).
		Int64("sessions_deleted", sessionsDeleted).
		Duration(duration).
		Log()

	return nil
}
