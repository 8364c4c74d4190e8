// Package objects provides a driver over live in-process Go objects.
//
// Applications register typed collections on a Realm; the schema of each
// collection is derived from its struct type and the `dbbridge` struct tag:
//
//	type Task struct {
//		ID    string    `dbbridge:"id,primary"`
//		Title string    `dbbridge:"title,indexed"`
//		Due   time.Time `dbbridge:"due,optional"`
//		Meta  Meta      `dbbridge:"meta,embedded"`
//	}
//
// Collections without a primary key get an implicit "id" column first.
// Schemas reached only through embedded fields are not listed as tables.
// Realms are wired programmatically, either by passing them to New or by
// publishing them for the registry factory.
package objects

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

// StructureColumns are the columns of every table structure.
var StructureColumns = []string{"name", "type", "defaultValue", "isIndexed", "isOptional", "mapTo"}

// Driver implements driver.Driver over realms.
type Driver struct {
	realms []*Realm
	logger *slog.Logger
}

var _ driver.Driver = (*Driver)(nil)

// New creates a driver exposing each realm as one database.
func New(realms []*Realm, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{realms: realms, logger: logger}
}

// Name returns the driver type.
func (d *Driver) Name() string { return "objects" }

// Databases returns the realms.
func (d *Driver) Databases(_ context.Context) ([]core.Descriptor, error) {
	out := make([]core.Descriptor, len(d.realms))
	for i, r := range d.realms {
		out[i] = r
	}
	return out, nil
}

func realm(desc core.Descriptor) (*Realm, error) {
	r, ok := desc.(*Realm)
	if !ok {
		return nil, driver.ErrDescriptorMismatch
	}
	return r, nil
}

func lookup(desc core.Descriptor, table string) (*collection, error) {
	r, err := realm(desc)
	if err != nil {
		return nil, err
	}
	c, ok := r.lookup(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	return c, nil
}

// TableNames lists registered collections, excluding embedded schemas.
func (d *Driver) TableNames(_ context.Context, desc core.Descriptor) ([]string, error) {
	r, err := realm(desc)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, s := range r.Schemas() {
		if !s.Embedded {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

// TableStructure reports one row per property and the indexed properties.
func (d *Driver) TableStructure(_ context.Context, desc core.Descriptor, table string) (*core.TableStructure, error) {
	c, err := lookup(desc, table)
	if err != nil {
		return nil, err
	}

	out := &core.TableStructure{
		StructureColumns: StructureColumns,
		StructureValues:  [][]any{},
		IndexesColumns:   []string{"name", "type"},
		IndexesValues:    [][]any{},
	}
	for _, p := range c.schema.Properties {
		var mapTo any
		if p.MapTo != "" {
			mapTo = p.MapTo
		}
		out.StructureValues = append(out.StructureValues,
			[]any{p.Name, p.Type, p.Default, p.Indexed, p.Optional, mapTo})
		if p.Indexed {
			out.IndexesValues = append(out.IndexesValues, []any{p.Name, p.Type})
		}
	}
	return out, nil
}

// TableData snapshots the collection, then sorts and windows it in memory.
// Without an order, reverse is ignored.
func (d *Driver) TableData(_ context.Context, desc core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	c, err := lookup(desc, table)
	if err != nil {
		return nil, err
	}
	columns := c.schema.Columns()
	col, err := driver.ColumnIndex(columns, order)
	if err != nil {
		return nil, err
	}

	objs := c.snapshot()
	rows := make([][]any, len(objs))
	for i, v := range objs {
		rows[i] = objectRow(c.schema, v, i)
	}
	d.logger.Debug("paging objects", "collection", table, "objects", len(rows))
	return driver.Page(columns, rows, col, reverse, start, count), nil
}

func objectRow(s *Schema, v reflect.Value, pos int) []any {
	row := make([]any, len(s.Properties))
	for i, p := range s.Properties {
		if p.implicit {
			row[i] = int64(pos + 1)
			continue
		}
		row[i] = cellValue(v.FieldByIndex(p.index))
	}
	return row
}

func cellValue(f reflect.Value) any {
	if f.Kind() == reflect.Ptr && f.IsNil() {
		return nil
	}
	return driver.NormalizeValue(f.Interface())
}

// TableInfo renders the collection schema as indented JSON.
func (d *Driver) TableInfo(_ context.Context, desc core.Descriptor, table string) (*core.TableInfo, error) {
	c, err := lookup(desc, table)
	if err != nil {
		return nil, err
	}
	def, err := driver.FormatJSON(c.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to render schema: %w", err)
	}
	return &core.TableInfo{Definition: def}, nil
}
