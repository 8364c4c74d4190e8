package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultAddr is used when no address is configured.
const DefaultAddr = "localhost:6379"

func init() {
	driver.Register("redis", open)
}

func open(ctx context.Context, cfg core.DriverConfig, logger *slog.Logger) (driver.Driver, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	configs := cfg.Databases
	if len(configs) == 0 {
		configs = []core.DatabaseConfig{{Index: 0}}
	}

	var dbs []*Database
	for _, dc := range configs {
		client := goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       dc.Index,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			err = errors.Join(fmt.Errorf("failed to ping redis db %d: %w", dc.Index, err), client.Close())
			for _, opened := range dbs {
				err = errors.Join(err, opened.Store.Close())
			}
			return nil, err
		}

		name := dc.Name
		if name == "" {
			name = fmt.Sprintf("db%d", dc.Index)
		}
		dbs = append(dbs, &Database{Label: name, Index: dc.Index, Store: NewStore(client)})
	}
	return New(dbs, logger), nil
}
