// Package ledgertest builds in-memory ledger stores for package tests.
package ledgertest

import (
	"context"
	"testing"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Admin is the administrator identity bootstrapped by NewStore.
const Admin = "admin"

// NewDB opens a migrated in-memory SQLite database. A single connection keeps
// every query on the same in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// NewStore returns a store over a fresh database with Admin bootstrapped.
func NewStore(t *testing.T) *ledger.Store {
	t.Helper()
	db := NewDB(t)
	_, err := ledger.Bootstrap(context.Background(), db, Admin)
	require.NoError(t, err)
	return ledger.NewStore(db)
}
