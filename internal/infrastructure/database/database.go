package database

import (
	"strings"

	"proptoken-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite://"

// Open opens a GORM DB from DSN. "sqlite://<path>" selects the embedded SQLite
// driver (local runs); anything else is a Postgres DSN.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, sqlitePrefix) {
		return gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix)), &gorm.Config{})
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate creates or updates every ledger table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.RegistryState{},
		&domain.Property{},
		&domain.ShareOwnership{},
		&domain.PropertyInvestor{},
		&domain.LedgerEvent{},
		&domain.Settlement{},
		&domain.WalletAccount{},
		&domain.Payment{},
	)
}
