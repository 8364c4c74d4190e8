// Package drivertest provides an in-memory driver for tests of code built on
// the driver contract.
package drivertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

// Table is the content of one fake table.
type Table struct {
	Columns []string
	Rows    [][]any
	// Definition is returned by TableInfo.
	Definition string
}

// Database is a fake database descriptor.
type Database struct {
	Label  string
	Tables map[string]*Table
}

// Name returns the database label.
func (d *Database) Name() string { return d.Label }

// Driver serves fixed databases from memory and records calls.
type Driver struct {
	DriverName string

	mu        sync.Mutex
	databases []*Database
	err       error
	calls     []string
}

var _ driver.Driver = (*Driver)(nil)

// New creates a fake driver.
func New(name string, databases ...*Database) *Driver {
	return &Driver{DriverName: name, databases: databases}
}

// SetDatabases replaces the enumerated databases.
func (d *Driver) SetDatabases(databases ...*Database) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.databases = databases
}

// FailEnumeration makes Databases return err until cleared with nil.
func (d *Driver) FailEnumeration(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Calls returns the recorded method names.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *Driver) record(method string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, method)
}

// Name returns the driver name.
func (d *Driver) Name() string { return d.DriverName }

// Databases returns the configured databases.
func (d *Driver) Databases(_ context.Context) ([]core.Descriptor, error) {
	d.record("Databases")
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	out := make([]core.Descriptor, len(d.databases))
	for i, db := range d.databases {
		out[i] = db
	}
	return out, nil
}

func (d *Driver) table(desc core.Descriptor, name string) (*Table, error) {
	db, ok := desc.(*Database)
	if !ok {
		return nil, driver.ErrDescriptorMismatch
	}
	t, ok := db.Tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, name)
	}
	return t, nil
}

// TableNames returns table names in map order.
func (d *Driver) TableNames(_ context.Context, desc core.Descriptor) ([]string, error) {
	d.record("TableNames")
	db, ok := desc.(*Database)
	if !ok {
		return nil, driver.ErrDescriptorMismatch
	}
	names := make([]string, 0, len(db.Tables))
	for name := range db.Tables {
		names = append(names, name)
	}
	return names, nil
}

// TableStructure reports every column as text.
func (d *Driver) TableStructure(_ context.Context, desc core.Descriptor, table string) (*core.TableStructure, error) {
	d.record("TableStructure")
	t, err := d.table(desc, table)
	if err != nil {
		return nil, err
	}
	s := &core.TableStructure{
		StructureColumns: []string{"name", "type"},
		StructureValues:  [][]any{},
		IndexesColumns:   []string{"name", "type"},
		IndexesValues:    [][]any{},
	}
	for _, c := range t.Columns {
		s.StructureValues = append(s.StructureValues, []any{c, "text"})
	}
	return s, nil
}

// TableData sorts and windows the rows in memory.
func (d *Driver) TableData(_ context.Context, desc core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	d.record("TableData")
	t, err := d.table(desc, table)
	if err != nil {
		return nil, err
	}
	col, err := driver.ColumnIndex(t.Columns, order)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, len(t.Rows))
	copy(rows, t.Rows)
	return driver.Page(t.Columns, rows, col, reverse, start, count), nil
}

// TableInfo returns the table definition.
func (d *Driver) TableInfo(_ context.Context, desc core.Descriptor, table string) (*core.TableInfo, error) {
	d.record("TableInfo")
	t, err := d.table(desc, table)
	if err != nil {
		return nil, err
	}
	return &core.TableInfo{Definition: t.Definition}, nil
}

// SQLDriver is a fake driver that also executes statements through Exec.
type SQLDriver struct {
	*Driver
	Exec func(ctx context.Context, query string) (*core.ExecuteResult, error)
}

var _ driver.Executor = (*SQLDriver)(nil)

// ExecuteSQL delegates to Exec.
func (d *SQLDriver) ExecuteSQL(ctx context.Context, _ core.Descriptor, query string) (*core.ExecuteResult, error) {
	d.record("ExecuteSQL")
	return d.Exec(ctx, query)
}
