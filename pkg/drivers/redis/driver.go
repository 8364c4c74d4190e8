// Package redis provides the redis driver for dbbridge.
//
// Each logical database index is one database. Keys are grouped into tables
// by their redis type, so a database holding strings and hashes exposes the
// tables "hash" and "string".
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

// Columns of every key type table.
var Columns = []string{"key", "ttl", "value"}

var valueTypes = map[string]string{
	"string": "string",
	"hash":   "map",
	"list":   "array",
	"set":    "array",
	"zset":   "array",
}

// Database is the descriptor of one logical redis database.
type Database struct {
	Label string
	Index int
	Store KeyValueStore
}

// Name returns the database label.
func (d *Database) Name() string { return d.Label }

// Driver implements driver.Driver for redis.
type Driver struct {
	databases []*Database
	logger    *slog.Logger
}

var _ driver.Driver = (*Driver)(nil)

// New creates a driver over already connected databases.
func New(databases []*Database, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{databases: databases, logger: logger}
}

// Name returns the driver type.
func (d *Driver) Name() string { return "redis" }

// Databases returns the configured database indexes.
func (d *Driver) Databases(_ context.Context) ([]core.Descriptor, error) {
	out := make([]core.Descriptor, len(d.databases))
	for i, db := range d.databases {
		out[i] = db
	}
	return out, nil
}

// Close closes every client.
func (d *Driver) Close() error {
	var err error
	for _, db := range d.databases {
		if db.Store != nil {
			err = errors.Join(err, db.Store.Close())
		}
	}
	return err
}

func store(desc core.Descriptor) (KeyValueStore, error) {
	db, ok := desc.(*Database)
	if !ok {
		return nil, driver.ErrDescriptorMismatch
	}
	if db.Store == nil {
		return nil, driver.ErrNotConnected
	}
	return db.Store, nil
}

// keysByType groups every key of the database by redis type.
func (d *Driver) keysByType(ctx context.Context, s KeyValueStore) (map[string][]string, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]string)
	for _, key := range keys {
		typ, err := s.Type(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read type of %s: %w", key, err)
		}
		if typ == "none" {
			// expired between scan and lookup
			continue
		}
		groups[typ] = append(groups[typ], key)
	}
	return groups, nil
}

// TableNames lists the key types present.
func (d *Driver) TableNames(ctx context.Context, desc core.Descriptor) ([]string, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	groups, err := d.keysByType(ctx, s)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(groups))
	for typ := range groups {
		names = append(names, typ)
	}
	slices.Sort(names)
	return names, nil
}

// TableStructure describes the fixed key, ttl and value columns.
func (d *Driver) TableStructure(ctx context.Context, desc core.Descriptor, table string) (*core.TableStructure, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	if _, err := d.keysOf(ctx, s, table); err != nil {
		return nil, err
	}

	valueType, ok := valueTypes[table]
	if !ok {
		valueType = table
	}
	return &core.TableStructure{
		StructureColumns: []string{"name", "type"},
		StructureValues: [][]any{
			{"key", "string"},
			{"ttl", "integer"},
			{"value", valueType},
		},
		IndexesColumns: []string{"name", "type"},
		IndexesValues:  [][]any{{"key", "string"}},
	}, nil
}

func (d *Driver) keysOf(ctx context.Context, s KeyValueStore, table string) ([]string, error) {
	groups, err := d.keysByType(ctx, s)
	if err != nil {
		return nil, err
	}
	keys, ok := groups[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	return keys, nil
}

// TableData reads every key of the type, then sorts and windows in memory.
// Keys that disappear while the page is read are left out.
// ttl is in seconds, -1 when the key does not expire. Composite values are
// rendered as indented JSON.
func (d *Driver) TableData(ctx context.Context, desc core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	col, err := driver.ColumnIndex(Columns, order)
	if err != nil {
		return nil, err
	}
	keys, err := d.keysOf(ctx, s, table)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(keys))
	for _, key := range keys {
		ttl, err := s.TTL(ctx, key)
		if isKeyGone(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ttl of %s: %w", key, err)
		}
		v, err := s.Value(ctx, key, table)
		if isKeyGone(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		rows = append(rows, []any{key, ttlSeconds(ttl), driver.NormalizeValue(v)})
	}

	d.logger.Debug("paging keys", "type", table, "keys", len(rows))
	return driver.Page(Columns, rows, col, reverse, start, count), nil
}

func ttlSeconds(ttl time.Duration) int64 {
	if ttl < 0 {
		return -1
	}
	return int64(ttl / time.Second)
}

// TableInfo reports the key count of the type and the server keyspace line
// of the database.
func (d *Driver) TableInfo(ctx context.Context, desc core.Descriptor, table string) (*core.TableInfo, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	keys, err := d.keysOf(ctx, s, table)
	if err != nil {
		return nil, err
	}
	info, err := s.Keyspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyspace info: %w", err)
	}

	index := desc.(*Database).Index
	def, err := driver.FormatJSON(map[string]any{
		"type":     table,
		"keys":     len(keys),
		"keyspace": keyspaceLine(info, index),
	})
	if err != nil {
		return nil, err
	}
	return &core.TableInfo{Definition: def}, nil
}

// keyspaceLine extracts "keys=..,expires=.." for db index from INFO output.
func keyspaceLine(info string, index int) string {
	prefix := fmt.Sprintf("db%d:", index)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return rest
		}
	}
	return ""
}
