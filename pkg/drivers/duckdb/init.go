package duckdb

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

func init() {
	driver.Register("duckdb", open)
}

func open(ctx context.Context, cfg core.DriverConfig, logger *slog.Logger) (driver.Driver, error) {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	configs := cfg.Databases
	if len(configs) == 0 {
		configs = []core.DatabaseConfig{{Name: "memory", Path: ":memory:"}}
	}

	var dbs []*driver.SQLDatabase
	for _, dc := range configs {
		name := dc.Name
		if name == "" {
			name = filepath.Base(dc.Path)
		}
		db, err := Open(ctx, name, dc.Path, params)
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
