package database

import (
	"testing"

	"github.com/Payphone-Digital/lms/config"
	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/Payphone-Digital/lms/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig("production"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func TestAutoMigrate_CreatesSessionIndexes(t *testing.T) {
	db := openTestDB(t)

	var names []string
	require.NoError(t, db.Raw("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'sessions'").Scan(&names).Error)
	assert.Contains(t, names, "idx_sessions_user_active")
	assert.Contains(t, names, "idx_sessions_revoked_expires")

	// running again is a no-op
	require.NoError(t, AutoMigrate(db))
}

func TestSeed_Idempotent(t *testing.T) {
	db := openTestDB(t)
	cfg := config.SeedConfig{
		CompanyName:   "Default Company",
		AdminName:     "Administrator",
		AdminEmail:    " Admin@LMS.local ",
		AdminPassword: "s3cret",
	}

	require.NoError(t, Seed(db, cfg, bcrypt.MinCost))
	require.NoError(t, Seed(db, cfg, bcrypt.MinCost))

	var companies, roles, users int64
	db.Model(&model.Company{}).Count(&companies)
	db.Model(&model.Role{}).Count(&roles)
	db.Model(&model.User{}).Count(&users)
	assert.Equal(t, int64(1), companies)
	assert.Equal(t, int64(len(DefaultRoles)), roles)
	assert.Equal(t, int64(1), users)

	var admin model.User
	require.NoError(t, db.Preload("Role").Where("email = ?", "admin@lms.local").First(&admin).Error)
	assert.Equal(t, constants.RoleAdmin, admin.Role.Name)
	require.True(t, admin.HasPassword())
	assert.NotNil(t, admin.PasswordSetAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*admin.PasswordHash), []byte("s3cret")))
}

func TestSeed_SkipsAdminWithoutPassword(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Seed(db, config.SeedConfig{CompanyName: "Acme", AdminEmail: "admin@lms.local"}, bcrypt.MinCost))

	var users int64
	db.Model(&model.User{}).Count(&users)
	assert.Zero(t, users)

	roles, err := SeedRoles(db)
	require.NoError(t, err)
	assert.NotEmpty(t, roles[constants.RoleLearner].ID)
}
