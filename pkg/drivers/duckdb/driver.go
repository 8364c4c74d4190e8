// Package duckdb provides the DuckDB driver for dbbridge.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DefaultSchema is browsed when no schema is configured.
const DefaultSchema = "main"

// Driver implements driver.Driver and driver.Executor for DuckDB.
type Driver struct {
	driver.BaseSQLDriver
	schema string
}

var (
	_ driver.Driver   = (*Driver)(nil)
	_ driver.Executor = (*Driver)(nil)
)

// New creates a driver over already open databases.
func New(databases []*driver.SQLDatabase, schema string, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if schema == "" {
		schema = DefaultSchema
	}
	return &Driver{
		BaseSQLDriver: driver.BaseSQLDriver{Static: databases, Logger: logger},
		schema:        schema,
	}
}

// Open opens a DuckDB database and applies params to it.
// Use ":memory:" as the path for an in-memory database.
func Open(ctx context.Context, name, path string, params *Params) (*driver.SQLDatabase, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	if err := applyParams(ctx, db, params); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &driver.SQLDatabase{Label: name, Path: path, DB: db}, nil
}

func applyParams(ctx context.Context, db *sql.DB, params *Params) error {
	if params == nil {
		return nil
	}
	for _, ext := range params.Extensions {
		//nolint:gosec // extension names come from trusted configuration
		if _, err := db.ExecContext(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(params.Settings))
	for k := range params.Settings {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		//nolint:gosec // settings come from trusted configuration
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET GLOBAL %s = '%s'", k, params.Settings[k])); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

// Name returns the driver type.
func (d *Driver) Name() string { return "duckdb" }

// TableNames lists tables and views in the configured schema.
func (d *Driver) TableNames(ctx context.Context, desc core.Descriptor) ([]string, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}
	return d.QueryStrings(ctx, db,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = ?`, d.schema)
}

// TableStructure reports PRAGMA table_info for the table.
func (d *Driver) TableStructure(ctx context.Context, desc core.Descriptor, table string) (*core.TableStructure, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}
	if err := d.ensureTable(ctx, db, table); err != nil {
		return nil, err
	}
	return d.PragmaTableInfo(ctx, db, d.schema, table)
}

// TableData pages through a table. Base tables default to rowid order.
func (d *Driver) TableData(ctx context.Context, desc core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}

	kind, err := d.tableType(ctx, db, table)
	if err != nil {
		return nil, err
	}
	s, err := d.PragmaTableInfo(ctx, db, d.schema, table)
	if err != nil {
		return nil, err
	}

	q := driver.PageQuery{
		Schema:  d.schema,
		Table:   table,
		Columns: driver.ColumnNames(s),
		Order:   order,
		Reverse: reverse,
		Start:   start,
		Count:   count,
	}
	if kind == "BASE TABLE" {
		q.DefaultOrder = "rowid"
	}
	return d.SelectPage(ctx, db, q)
}

// TableInfo returns the CREATE statement DuckDB keeps for tables and views.
func (d *Driver) TableInfo(ctx context.Context, desc core.Descriptor, table string) (*core.TableInfo, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT sql FROM duckdb_tables() WHERE schema_name = ? AND table_name = ?
		UNION ALL
		SELECT sql FROM duckdb_views() WHERE schema_name = ? AND view_name = ?`

	var ddl sql.NullString
	err = db.QueryRowContext(ctx, query, d.schema, table, d.schema, table).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table definition: %w", err)
	}
	return &core.TableInfo{Definition: ddl.String}, nil
}

func (d *Driver) tableType(ctx context.Context, db *sql.DB, table string) (string, error) {
	var kind string
	err := db.QueryRowContext(ctx,
		`SELECT table_type FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
		d.schema, table).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up table: %w", err)
	}
	return kind, nil
}

func (d *Driver) ensureTable(ctx context.Context, db *sql.DB, table string) error {
	_, err := d.tableType(ctx, db, table)
	return err
}
