package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/lms/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Company{}, &model.Role{}, &model.User{}, &model.Session{}, &model.PasswordReset{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	company := &model.Company{Name: "Acme " + email}
	role := &model.Role{Name: "learner " + email}
	require.NoError(t, db.Create(company).Error)
	require.NoError(t, db.Create(role).Error)

	hash := "digest"
	user := &model.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: &hash,
		RoleID:       role.ID,
		CompanyID:    company.ID,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func TestUserRepository_GetByIDPreloadsReferences(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	user := seedUser(t, db, "alice@example.com")

	got, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "Acme alice@example.com", got.Company.Name)
	assert.Equal(t, "learner alice@example.com", got.Role.Name)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_ExistsAndReferences(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	user := seedUser(t, db, "bob@example.com")

	exists, err := repo.ExistsByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	ok, err := repo.ReferencesExist(context.Background(), user.RoleID, user.CompanyID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ReferencesExist(context.Background(), "nope", user.CompanyID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	user := seedUser(t, db, "carol@example.com")
	setAt := time.Now().UTC()

	require.NoError(t, repo.UpdatePassword(context.Background(), user.ID, "new-digest", setAt))

	got, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "new-digest", *got.PasswordHash)
	require.NotNil(t, got.PasswordSetAt)

	err = repo.UpdatePassword(context.Background(), "missing", "x", setAt)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionRepository(db)
	resets := NewPasswordResetRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "dave@example.com")
	other := seedUser(t, db, "erin@example.com")

	require.NoError(t, sessions.Create(ctx, &model.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, sessions.Create(ctx, &model.Session{UserID: other.ID, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, resets.Upsert(ctx, &model.PasswordReset{UserID: user.ID, TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, users.Delete(ctx, user.ID))

	var count int64
	db.Model(&model.Session{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&model.Session{}).Where("user_id = ?", other.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&model.PasswordReset{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)

	err := users.Delete(ctx, user.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSessionRepository_RevokeIsConditional(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "frank@example.com")

	session := &model.Session{UserID: user.ID, ExpiresAt: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))
	require.NotEmpty(t, session.ID)

	ok, err := repo.Revoke(ctx, session.ID, "rotated")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Revoke(ctx, session.ID, "logout")
	require.NoError(t, err)
	assert.False(t, ok, "second revoke must not win")

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	assert.Equal(t, "rotated", got.RevokedReason)
	assert.NotNil(t, got.RevokedAt)
}

func TestSessionRepository_ConcurrentRevokeHasOneWinner(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "grace@example.com")

	session := &model.Session{UserID: user.ID, ExpiresAt: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Revoke(ctx, session.ID, "rotated")
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestSessionRepository_ListAndRevokeAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "heidi@example.com")
	now := time.Now().UTC()

	live := &model.Session{UserID: user.ID, ExpiresAt: now.Add(time.Hour)}
	expired := &model.Session{UserID: user.ID, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.SetRefreshTokenHash(ctx, live.ID, "digest"))

	active, err := repo.ListActiveByUser(ctx, user.ID, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.ID, active[0].ID)
	require.NotNil(t, active[0].RefreshTokenHash)
	assert.Equal(t, "digest", *active[0].RefreshTokenHash)

	n, err := repo.RevokeAllByUser(ctx, user.ID, "reuse_detected")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err = repo.ListActiveByUser(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSessionRepository_DeleteExpiredBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ivan@example.com")
	now := time.Now().UTC()

	old := &model.Session{UserID: user.ID, ExpiresAt: now.Add(-48 * time.Hour)}
	recent := &model.Session{UserID: user.ID, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))

	n, err := repo.DeleteExpiredBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByID(ctx, old.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, err = repo.GetByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestPasswordResetRepository_UpsertKeepsNewest(t *testing.T) {
	db := newTestDB(t)
	repo := NewPasswordResetRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "judy@example.com")
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, &model.PasswordReset{UserID: user.ID, TokenHash: "first", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, &model.PasswordReset{UserID: user.ID, TokenHash: "second", ExpiresAt: now.Add(2 * time.Hour)}))

	var count int64
	db.Model(&model.PasswordReset{}).Count(&count)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.TokenHash)

	require.NoError(t, repo.DeleteByUserID(ctx, user.ID))
	_, err = repo.GetByUserID(ctx, user.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestPasswordResetRepository_DeleteExpired(t *testing.T) {
	db := newTestDB(t)
	repo := NewPasswordResetRepository(db)
	ctx := context.Background()
	expiredUser := seedUser(t, db, "ken@example.com")
	liveUser := seedUser(t, db, "lena@example.com")
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, &model.PasswordReset{UserID: expiredUser.ID, TokenHash: "a", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Upsert(ctx, &model.PasswordReset{UserID: liveUser.ID, TokenHash: "b", ExpiresAt: now.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByUserID(ctx, liveUser.ID)
	assert.NoError(t, err)
}
