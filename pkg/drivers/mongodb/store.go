package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NaturalOrder sorts by storage order instead of a field.
const NaturalOrder = "$natural"

// Index describes one collection index. Fields holds the key fields in
// key document order.
type Index struct {
	Name   string
	Fields []string
	Unique bool
}

// Store is the subset of a MongoDB database the driver reads.
type Store interface {
	CollectionNames(ctx context.Context) ([]string, error)
	Count(ctx context.Context, collection string) (int64, error)
	// Find returns documents sorted by sortField (unsorted when empty).
	// A limit of zero returns no documents.
	Find(ctx context.Context, collection, sortField string, desc bool, skip, limit int64) ([]bson.D, error)
	Indexes(ctx context.Context, collection string) ([]Index, error)
	// CollectionInfo returns the collection specification, or nil when the
	// collection does not exist.
	CollectionInfo(ctx context.Context, collection string) (bson.D, error)
}

type mongoStore struct {
	db *mongo.Database
}

// NewStore wraps a mongo database handle.
func NewStore(db *mongo.Database) Store {
	return &mongoStore{db: db}
}

func (s *mongoStore) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

func (s *mongoStore) Count(ctx context.Context, collection string) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (s *mongoStore) Find(ctx context.Context, collection, sortField string, desc bool, skip, limit int64) ([]bson.D, error) {
	if limit <= 0 {
		return []bson.D{}, nil
	}

	opts := options.Find().SetSkip(skip).SetLimit(limit)
	if sortField != "" {
		dir := 1
		if desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: sortField, Value: dir}})
	}

	cur, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	docs := []bson.D{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

func (s *mongoStore) Indexes(ctx context.Context, collection string) ([]Index, error) {
	specs, err := s.db.Collection(collection).Indexes().ListSpecifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	out := make([]Index, 0, len(specs))
	for _, spec := range specs {
		idx := Index{Name: spec.Name}
		elems, err := spec.KeysDocument.Elements()
		if err != nil {
			return nil, fmt.Errorf("failed to decode index keys: %w", err)
		}
		for _, e := range elems {
			idx.Fields = append(idx.Fields, e.Key())
		}
		if spec.Unique != nil {
			idx.Unique = *spec.Unique
		}
		out = append(out, idx)
	}
	return out, nil
}

func (s *mongoStore) CollectionInfo(ctx context.Context, collection string) (bson.D, error) {
	specs, err := s.db.ListCollectionSpecifications(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		return nil, fmt.Errorf("failed to read collection specification: %w", err)
	}
	if len(specs) == 0 {
		return nil, nil
	}

	spec := specs[0]
	info := bson.D{
		{Key: "name", Value: spec.Name},
		{Key: "type", Value: spec.Type},
		{Key: "readOnly", Value: spec.ReadOnly},
	}
	if len(spec.Options) > 0 {
		var opts bson.D
		if err := bson.Unmarshal(spec.Options, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode collection options: %w", err)
		}
		info = append(info, bson.E{Key: "options", Value: opts})
	}
	return info, nil
}
