// Package postgres opens the clinic database on PostgreSQL.
package postgres

import (
	"errors"

	"github.com/atvirokodosprendimai/clinicseed/internal/adapters/db/gormstore"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	foreignKeyViolation = "23503"
	restrictViolation   = "23001"
)

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

func NewFixtureStore(db *gorm.DB) *gormstore.Store {
	return gormstore.New(db, IsForeignKeyViolation)
}

// IsForeignKeyViolation reports whether err carries SQLSTATE 23503 or 23001.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == foreignKeyViolation || pgErr.Code == restrictViolation
}
