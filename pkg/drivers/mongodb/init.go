package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// systemDatabases are hidden when databases are discovered from the server.
var systemDatabases = []string{"admin", "config", "local"}

func init() {
	driver.Register("mongodb", open)
}

func open(ctx context.Context, cfg core.DriverConfig, logger *slog.Logger) (driver.Driver, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongodb driver requires uri")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	names := make([]string, 0, len(cfg.Databases))
	for _, dc := range cfg.Databases {
		names = append(names, dc.Name)
	}
	if len(names) == 0 {
		all, err := client.ListDatabaseNames(ctx, bson.D{})
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("failed to list databases: %w", err)
		}
		for _, name := range all {
			if !slices.Contains(systemDatabases, name) {
				names = append(names, name)
			}
		}
	}

	dbs := make([]*Database, len(names))
	for i, name := range names {
		dbs[i] = &Database{Label: name, Store: NewStore(client.Database(name))}
	}

	d := New(dbs, logger)
	d.closer = client.Disconnect
	return d, nil
}
