package gormstore

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// Migrate applies every pending migration found at the root of fsys and
// reports how many ran.
func Migrate(ctx context.Context, db *gorm.DB, dialect goose.Dialect, fsys fs.FS) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return len(results), nil
}
