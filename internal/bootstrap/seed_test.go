package bootstrap_test

import (
	"path/filepath"
	"testing"

	"anoa.com/studyhub/internal/bootstrap"
	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

func TestSeedAdminUser(t *testing.T) {
	db, err := database.Open(database.Options{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "seed.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))

	require.NoError(t, bootstrap.SeedAdminUser(db, "admin@studyhub.local", "secret123"))
	// second run is a no-op
	require.NoError(t, bootstrap.SeedAdminUser(db, "admin@studyhub.local", "secret123"))

	var admins []entity.User
	require.NoError(t, db.Where("email = ?", "admin@studyhub.local").Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].IsAdmin)
	assert.Equal(t, 1, admins[0].Level)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].PasswordHash), []byte("secret123")))
}

func TestSeedAdminUser_SkipsWithoutPassword(t *testing.T) {
	db, err := database.Open(database.Options{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "seed.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))

	require.NoError(t, bootstrap.SeedAdminUser(db, "admin@studyhub.local", ""))

	var count int64
	require.NoError(t, db.Model(&entity.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
