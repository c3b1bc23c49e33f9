package database

import (
	"testing"

	"proptoken-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	db, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, AutoMigrate(db))
	for _, model := range []interface{}{
		&domain.RegistryState{}, &domain.Property{}, &domain.ShareOwnership{},
		&domain.PropertyInvestor{}, &domain.LedgerEvent{}, &domain.Settlement{}, &domain.WalletAccount{}, &domain.Payment{},
	} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}
