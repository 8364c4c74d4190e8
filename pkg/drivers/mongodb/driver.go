// Package mongodb provides the MongoDB driver for dbbridge. Collections are
// exposed as tables with two columns: the document id and the document
// rendered as relaxed extended JSON.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Columns of every collection.
var Columns = []string{"_id", "document"}

// Database is the descriptor of one MongoDB database.
type Database struct {
	Label string
	Store Store
}

// Name returns the database name.
func (d *Database) Name() string { return d.Label }

// Driver implements driver.Driver for MongoDB.
type Driver struct {
	databases []*Database
	logger    *slog.Logger
	closer    func(context.Context) error
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
func (d *Driver) Name() string { return "mongodb" }

// Close disconnects the client when the driver owns one.
func (d *Driver) Close() error {
	if d.closer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.closer(ctx)
}

// Databases returns the configured databases.
func (d *Driver) Databases(_ context.Context) ([]core.Descriptor, error) {
	out := make([]core.Descriptor, len(d.databases))
	for i, db := range d.databases {
		out[i] = db
	}
	return out, nil
}

func store(desc core.Descriptor) (Store, error) {
	db, ok := desc.(*Database)
	if !ok {
		return nil, driver.ErrDescriptorMismatch
	}
	if db.Store == nil {
		return nil, driver.ErrNotConnected
	}
	return db.Store, nil
}

// TableNames lists collections.
func (d *Driver) TableNames(ctx context.Context, desc core.Descriptor) ([]string, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	return s.CollectionNames(ctx)
}

func (d *Driver) ensureCollection(ctx context.Context, s Store, collection string) error {
	names, err := s.CollectionNames(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, collection) {
		return fmt.Errorf("%w: %s", driver.ErrTableNotFound, collection)
	}
	return nil
}

// TableStructure describes the top-level fields of the first document
// followed by the document column itself. Indexes list every indexed field
// once with its sampled type.
func (d *Driver) TableStructure(ctx context.Context, desc core.Descriptor, table string) (*core.TableStructure, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	if err := d.ensureCollection(ctx, s, table); err != nil {
		return nil, err
	}

	sample, err := s.Find(ctx, table, "", false, 0, 1)
	if err != nil {
		return nil, err
	}
	out := &core.TableStructure{
		StructureColumns: []string{"name", "type"},
		StructureValues:  [][]any{{"_id", "objectId"}},
		IndexesColumns:   []string{"name", "type"},
		IndexesValues:    [][]any{},
	}
	types := map[string]string{"_id": "objectId"}
	if len(sample) > 0 {
		for _, e := range sample[0] {
			t := typeName(e.Value)
			types[e.Key] = t
			if e.Key == "_id" {
				out.StructureValues[0][1] = t
				continue
			}
			out.StructureValues = append(out.StructureValues, []any{e.Key, t})
		}
	}
	out.StructureValues = append(out.StructureValues, []any{"document", "object"})

	indexes, err := s.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, idx := range indexes {
		for _, f := range idx.Fields {
			if seen[f] {
				continue
			}
			seen[f] = true
			out.IndexesValues = append(out.IndexesValues, []any{f, types[f]})
		}
	}
	return out, nil
}

// TableData pages through a collection on the server. Ordering by "_id" or
// any document field path sorts server side; ordering by "document" sorts by
// storage order. Without an order, reverse is ignored.
func (d *Driver) TableData(ctx context.Context, desc core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	if err := d.ensureCollection(ctx, s, table); err != nil {
		return nil, err
	}

	total, err := s.Count(ctx, table)
	if err != nil {
		return nil, err
	}

	sortField := order
	if order == "document" {
		sortField = NaturalOrder
	}
	docs, err := s.Find(ctx, table, sortField, reverse, int64(max(start, 0)), int64(max(count, 0)))
	if err != nil {
		return nil, err
	}

	values := make([][]any, 0, len(docs))
	for _, doc := range docs {
		row, err := documentRow(doc)
		if err != nil {
			return nil, err
		}
		values = append(values, row)
	}
	return &core.TableDataPage{
		Columns: Columns,
		Values:  values,
		Start:   start,
		Count:   len(values),
		Total:   total,
	}, nil
}

// TableInfo renders the collection specification as extended JSON.
func (d *Driver) TableInfo(ctx context.Context, desc core.Descriptor, table string) (*core.TableInfo, error) {
	s, err := store(desc)
	if err != nil {
		return nil, err
	}
	info, err := s.CollectionInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", driver.ErrTableNotFound, table)
	}
	def, err := ExtJSON(info)
	if err != nil {
		return nil, err
	}
	return &core.TableInfo{Definition: def}, nil
}

func documentRow(doc bson.D) ([]any, error) {
	var id any
	for _, e := range doc {
		if e.Key == "_id" {
			v, err := cellValue(e.Value)
			if err != nil {
				return nil, err
			}
			id = v
			break
		}
	}
	body, err := ExtJSON(doc)
	if err != nil {
		return nil, err
	}
	return []any{id, body}, nil
}

// ExtJSON renders a document as relaxed extended JSON indented by two spaces.
func ExtJSON(doc any) (string, error) {
	b, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return string(b), nil
}

func cellValue(v any) (any, error) {
	switch val := v.(type) {
	case bson.ObjectID:
		return val.Hex(), nil
	case bson.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano), nil
	case bson.D, bson.M, bson.A:
		b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: val}}, false, false)
		if err != nil {
			return nil, fmt.Errorf("failed to render id: %w", err)
		}
		return extractValue(string(b)), nil
	}
	return driver.NormalizeValue(v), nil
}

// extractValue strips the {"v":...} wrapper used to render a bare value.
func extractValue(wrapped string) string {
	const prefix = `{"v":`
	if len(wrapped) > len(prefix)+1 && wrapped[:len(prefix)] == prefix {
		return wrapped[len(prefix) : len(wrapped)-1]
	}
	return wrapped
}

func typeName(v any) string {
	switch v.(type) {
	case nil, bson.Null:
		return "null"
	case bson.ObjectID:
		return "objectId"
	case string:
		return "string"
	case int32:
		return "int"
	case int64:
		return "long"
	case float64:
		return "double"
	case bool:
		return "bool"
	case bson.DateTime:
		return "date"
	case bson.Decimal128:
		return "decimal"
	case bson.Binary:
		return "binData"
	case bson.D, bson.M:
		return "object"
	case bson.A:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
