// Package postgres provides the PostgreSQL driver for dbbridge, built on the
// pgx database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// DefaultSchema is browsed when no schema is configured.
const DefaultSchema = "public"

const (
	tablesQuery = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')`

	tableTypeQuery = `SELECT table_type FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2`

	columnsQuery = `SELECT c.column_name, c.data_type, c.is_nullable = 'NO',
			EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage k
					ON tc.constraint_name = k.constraint_name AND tc.table_schema = k.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND k.column_name = c.column_name
			),
			c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	indexedColumnsQuery = `SELECT DISTINCT a.attname FROM pg_index i
		JOIN pg_class t ON t.oid = i.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(i.indkey)
		WHERE n.nspname = $1 AND t.relname = $2`

	viewDefQuery = `SELECT pg_get_viewdef(format('%I.%I', $1::text, $2::text)::regclass, true)`
)

// Driver implements driver.Driver and driver.Executor for PostgreSQL.
type Driver struct {
	driver.BaseSQLDriver
	schema string
}

var (
	_ driver.Driver   = (*Driver)(nil)
	_ driver.Executor = (*Driver)(nil)
)

// New creates a driver over already open connections.
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

// Open connects to a PostgreSQL server.
func Open(ctx context.Context, name, dsn string) (*driver.SQLDatabase, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres %s: %w", name, err)
	}
	return &driver.SQLDatabase{Label: name, DB: db}, nil
}

// Name returns the driver type.
func (d *Driver) Name() string { return "postgres" }

// TableNames lists tables and views of the configured schema.
func (d *Driver) TableNames(ctx context.Context, desc core.Descriptor) ([]string, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}
	return d.QueryStrings(ctx, db, tablesQuery, d.schema)
}

// TableStructure reports columns from information_schema. Indexes list
// every primary key or indexed column as name and type, in column order.
func (d *Driver) TableStructure(ctx context.Context, desc core.Descriptor, table string) (*core.TableStructure, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}

	s, err := d.columns(ctx, db, table)
	if err != nil {
		return nil, err
	}

	indexed, err := d.QueryStrings(ctx, db, indexedColumnsQuery, d.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}

	s.IndexesColumns = []string{"name", "type"}
	for _, row := range s.StructureValues {
		name, _ := row[0].(string)
		if pk, _ := row[3].(bool); pk || slices.Contains(indexed, name) {
			s.IndexesValues = append(s.IndexesValues, []any{name, row[1]})
		}
	}
	return s, nil
}

func (d *Driver) columns(ctx context.Context, db *sql.DB, table string) (*core.TableStructure, error) {
	rows, err := db.QueryContext(ctx, columnsQuery, d.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	s := &core.TableStructure{
		StructureColumns: []string{"name", "type", "not null", "primary key", "default value"},
		StructureValues:  [][]any{},
		IndexesValues:    [][]any{},
	}
	for rows.Next() {
		var (
			name, typ   string
			notNull, pk bool
			def         sql.NullString
		)
		if err := rows.Scan(&name, &typ, &notNull, &pk, &def); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		var dv any
		if def.Valid {
			dv = def.String
		}
		s.StructureValues = append(s.StructureValues, []any{name, typ, notNull, pk, dv})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(s.StructureValues) == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	return s, nil
}

// TableData pages through a table in the configured schema.
func (d *Driver) TableData(ctx context.Context, desc core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}

	s, err := d.columns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	return d.SelectPage(ctx, db, driver.PageQuery{
		Schema:  d.schema,
		Table:   table,
		Columns: driver.ColumnNames(s),
		Order:   order,
		Reverse: reverse,
		Start:   start,
		Count:   count,
	})
}

// TableInfo returns the view definition for views and a reconstructed
// CREATE TABLE statement for tables.
func (d *Driver) TableInfo(ctx context.Context, desc core.Descriptor, table string) (*core.TableInfo, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}

	var kind string
	err = db.QueryRowContext(ctx, tableTypeQuery, d.schema, table).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up table: %w", err)
	}

	relation := driver.QualifiedName(d.schema, table)
	if kind == "VIEW" {
		var def string
		if err := db.QueryRowContext(ctx, viewDefQuery, d.schema, table).Scan(&def); err != nil {
			return nil, fmt.Errorf("failed to read view definition: %w", err)
		}
		return &core.TableInfo{Definition: fmt.Sprintf("CREATE VIEW %s AS\n%s", relation, strings.TrimSpace(def))}, nil
	}

	s, err := d.columns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	return &core.TableInfo{Definition: createTable(relation, s)}, nil
}

func createTable(relation string, s *core.TableStructure) string {
	var (
		lines []string
		pks   []string
	)
	for _, row := range s.StructureValues {
		name, _ := row[0].(string)
		line := fmt.Sprintf("  %s %s", driver.QuoteIdent(name), row[1])
		if notNull, _ := row[2].(bool); notNull {
			line += " NOT NULL"
		}
		if def, ok := row[4].(string); ok {
			line += " DEFAULT " + def
		}
		if pk, _ := row[3].(bool); pk {
			pks = append(pks, driver.QuoteIdent(name))
		}
		lines = append(lines, line)
	}
	if len(pks) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", relation, strings.Join(lines, ",\n"))
}
