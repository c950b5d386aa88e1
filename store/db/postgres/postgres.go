// Package postgres implements the store driver for PostgreSQL, the
// recommended production backend.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/usemaya/maya/internal/profile"
	"github.com/usemaya/maya/store"
)

//go:embed migration/LATEST.sql
var latestSchema string

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database instance with the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

func joinAnd(conditions []string) string {
	return strings.Join(conditions, " AND ")
}
