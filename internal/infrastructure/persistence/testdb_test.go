package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with every model migrated.
// One connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// seedMerchant inserts an active merchant with the given slug
func seedMerchant(t *testing.T, db *gorm.DB, slug string) *identity.Merchant {
	t.Helper()

	m, err := identity.NewMerchant(uuid.New(), "Merchant "+slug, slug)
	require.NoError(t, err)
	require.NoError(t, db.Create(models.MerchantModelFromDomain(m)).Error)
	return m
}
