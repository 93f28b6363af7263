package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rsutrack-backend/internal/domain"
)

// Open opens a GORM DB from the configured DSN. A postgres:// URL selects
// the Postgres driver (PreferSimpleProtocol avoids 42P05 "prepared
// statement already exists" behind connection poolers); anything else is
// treated as a SQLite file path with WAL and foreign keys enabled, the
// parent directory created on demand.
func Open(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{TranslateError: true})
	}

	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return gorm.Open(sqlite.Open(dsn+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"), &gorm.Config{TranslateError: true})
}

// AutoMigrate creates all entity tables for both schema variants.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Grant{},
		&domain.ReleaseEvent{},
		&domain.GrantAllocation{},
		&domain.Vest{},
		&domain.SellForTax{},
		&domain.TaxCashReturn{},
		&domain.Release{},
		&domain.Sell{},
		&domain.Setting{},
	)
}
