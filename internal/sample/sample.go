// Package sample builds the demo SQLite database written by `dbbridge init`.
package sample

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/leapstack-labs/dbbridge/pkg/drivers/sqlite"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Tables lists the tables and views of the sample database.
var Tables = []string{"customers", "order_totals", "orders", "products"}

// Create creates or upgrades the sample database at path.
func Create(ctx context.Context, path string) error {
	db, err := sqlite.Open(ctx, "sample", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.DB.Close() }()

	return Migrate(ctx, db.DB)
}

// Migrate runs all pending sample migrations on db.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version returns the applied migration version of db.
func Version(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}
