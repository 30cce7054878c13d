package postgres

import (
	"context"
	"embed"
	"io/fs"

	"github.com/atvirokodosprendimai/clinicseed/internal/adapters/db/gormstore"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func RunMigrations(ctx context.Context, db *gorm.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	_, err = gormstore.Migrate(ctx, db, goose.DialectPostgres, fsys)
	return err
}
