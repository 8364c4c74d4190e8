// Package sqlite provides the SQLite driver for dbbridge.
//
// Databases are either configured statically or discovered by scanning a
// directory for database files on every enumeration.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"

	_ "modernc.org/sqlite" // sqlite driver
)

// Extensions recognized when scanning a directory.
var Extensions = []string{".db", ".sqlite", ".sqlite3"}

// Driver implements driver.Driver and driver.Executor for SQLite.
type Driver struct {
	driver.BaseSQLDriver

	dir string

	mu     sync.Mutex
	opened map[string]*driver.SQLDatabase
}

var (
	_ driver.Driver   = (*Driver)(nil)
	_ driver.Executor = (*Driver)(nil)
)

// New creates a driver over already open databases.
func New(databases []*driver.SQLDatabase, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{
		BaseSQLDriver: driver.BaseSQLDriver{Static: databases, Logger: logger},
		opened:        make(map[string]*driver.SQLDatabase),
	}
}

// WithDir enables enumeration of database files found in dir.
func (d *Driver) WithDir(dir string) *Driver {
	d.dir = dir
	return d
}

// Open opens a SQLite database file.
func Open(ctx context.Context, name, path string) (*driver.SQLDatabase, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database %s: %w", path, err)
	}
	return &driver.SQLDatabase{Label: name, Path: path, DB: db}, nil
}

// Name returns the driver type.
func (d *Driver) Name() string { return "sqlite" }

// Databases returns the static databases followed by the files currently
// present in the scanned directory, sorted by file name.
func (d *Driver) Databases(ctx context.Context) ([]core.Descriptor, error) {
	out, _ := d.BaseSQLDriver.Databases(ctx)
	if d.dir == "" {
		return out, nil
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", d.dir, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	present := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		path := filepath.Join(d.dir, e.Name())
		present[path] = true
		db, ok := d.opened[path]
		if !ok {
			db, err = Open(ctx, e.Name(), path)
			if err != nil {
				d.Logger.Warn("skipping database file", "path", path, "error", err)
				continue
			}
			d.opened[path] = db
		}
		out = append(out, db)
	}

	// Files removed since the last scan.
	for path, db := range d.opened {
		if !present[path] {
			_ = db.DB.Close()
			delete(d.opened, path)
		}
	}
	return out, nil
}

// Close closes static and discovered databases.
func (d *Driver) Close() error {
	err := d.BaseSQLDriver.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	for path, db := range d.opened {
		err = errors.Join(err, db.DB.Close())
		delete(d.opened, path)
	}
	return err
}

// TableNames lists tables and views, excluding SQLite internals.
func (d *Driver) TableNames(ctx context.Context, desc core.Descriptor) ([]string, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}
	return d.QueryStrings(ctx, db,
		`SELECT name FROM sqlite_schema WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`)
}

// TableStructure reports PRAGMA table_info.
func (d *Driver) TableStructure(ctx context.Context, desc core.Descriptor, table string) (*core.TableStructure, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}
	return d.PragmaTableInfo(ctx, db, "", table)
}

// TableData pages through a table. Without an explicit order, rowid tables
// are ordered by rowid.
func (d *Driver) TableData(ctx context.Context, desc core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}

	s, err := d.PragmaTableInfo(ctx, db, "", table)
	if err != nil {
		return nil, err
	}

	q := driver.PageQuery{
		Table:   table,
		Columns: driver.ColumnNames(s),
		Order:   order,
		Reverse: reverse,
		Start:   start,
		Count:   count,
	}
	if order == "" {
		rowid, err := hasRowID(ctx, db, table)
		if err != nil {
			return nil, err
		}
		if rowid {
			q.DefaultOrder = "rowid"
		}
	}
	return d.SelectPage(ctx, db, q)
}

func hasRowID(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var typ string
	var ddl sql.NullString
	err := db.QueryRowContext(ctx, `SELECT type, sql FROM sqlite_schema WHERE name = ?`, table).Scan(&typ, &ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read table definition: %w", err)
	}
	if typ != "table" {
		return false, nil
	}
	return !strings.Contains(strings.ToUpper(ddl.String), "WITHOUT ROWID"), nil
}

// TableInfo returns the CREATE statement stored in sqlite_schema.
func (d *Driver) TableInfo(ctx context.Context, desc core.Descriptor, table string) (*core.TableInfo, error) {
	db, err := driver.Handle(desc)
	if err != nil {
		return nil, err
	}

	var ddl sql.NullString
	err = db.QueryRowContext(ctx, `SELECT sql FROM sqlite_schema WHERE name = ?`, table).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table definition: %w", err)
	}
	return &core.TableInfo{Definition: ddl.String}, nil
}
