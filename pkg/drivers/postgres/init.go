package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

func init() {
	driver.Register("postgres", open)
}

func open(ctx context.Context, cfg core.DriverConfig, logger *slog.Logger) (driver.Driver, error) {
	configs := cfg.Databases
	if len(configs) == 0 && cfg.URI != "" {
		configs = []core.DatabaseConfig{{Name: "postgres", DSN: cfg.URI}}
	}
	if len(configs) == 0 {
		return nil, errors.New("postgres driver requires uri or databases")
	}

	var dbs []*driver.SQLDatabase
	for _, dc := range configs {
		dsn := dc.DSN
		if dsn == "" {
			dsn = cfg.URI
		}
		db, err := Open(ctx, dc.Name, dsn)
		if err != nil {
			for _, opened := range dbs {
				err = errors.Join(err, opened.DB.Close())
			}
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return New(dbs, cfg.Schema, logger), nil
}
