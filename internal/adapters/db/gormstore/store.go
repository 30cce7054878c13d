// Package gormstore implements the fixture store on top of gorm. It is
// shared by the SQLite and PostgreSQL backends, which differ only in how
// they open the connection, migrate the schema and recognize a refused
// delete.
package gormstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ domain.FixtureStore = (*Store)(nil)

// RefusalFunc reports whether err is the database refusing a delete
// because other rows still reference the deleted ones.
type RefusalFunc func(err error) bool

type Store struct {
	db      *gorm.DB
	refused RefusalFunc
}

func New(db *gorm.DB, refused RefusalFunc) *Store {
	if refused == nil {
		refused = func(error) bool { return false }
	}
	return &Store{db: db, refused: refused}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(tx domain.FixtureTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&transaction{db: tx, refused: s.refused})
	})
}

func (s *Store) Count(ctx context.Context, kind string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table(kind).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

type transaction struct {
	db      *gorm.DB
	refused RefusalFunc
}

func (tx *transaction) DeleteAll(ctx context.Context, kind string) (int64, error) {
	res := tx.db.WithContext(ctx).Exec("DELETE FROM ?", clause.Table{Name: kind})
	if res.Error != nil {
		if tx.refused(res.Error) {
			return 0, &domain.DeletionConstraintError{Kind: kind, Err: res.Error}
		}
		return 0, fmt.Errorf("delete %s: %w", kind, res.Error)
	}
	return res.RowsAffected, nil
}

func (tx *transaction) Create(ctx context.Context, kind string, fields domain.Fields) (uint, error) {
	query, args := insertStatement(kind, fields)
	var id uint
	if err := tx.db.WithContext(ctx).Raw(query, args...).Scan(&id).Error; err != nil {
		return 0, fmt.Errorf("insert %s: %w", kind, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("insert %s: no id returned", kind)
	}
	return id, nil
}

// insertStatement builds an INSERT ... RETURNING id for fields. Table and
// column names are passed as clause values so the dialect quotes them;
// columns are sorted to keep the statement stable.
func insertStatement(kind string, fields domain.Fields) (string, []any) {
	args := []any{clause.Table{Name: kind}}
	if len(fields) == 0 {
		return "INSERT INTO ? DEFAULT VALUES RETURNING id", args
	}

	cols := make([]string, 0, len(fields))
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	for _, c := range cols {
		args = append(args, clause.Column{Name: c})
	}
	for _, c := range cols {
		args = append(args, fields[c])
	}
	query := fmt.Sprintf("INSERT INTO ? (%s) VALUES (%s) RETURNING id", placeholders, placeholders)
	return query, args
}
