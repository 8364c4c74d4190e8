package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

func init() {
	driver.Register("sqlite", open)
}

func open(ctx context.Context, cfg core.DriverConfig, logger *slog.Logger) (driver.Driver, error) {
	var dbs []*driver.SQLDatabase
	for _, dc := range cfg.Databases {
		name := dc.Name
		if name == "" {
			name = filepath.Base(dc.Path)
		}
		db, err := Open(ctx, name, dc.Path)
		if err != nil {
			for _, opened := range dbs {
				err = errors.Join(err, opened.DB.Close())
			}
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return New(dbs, logger).WithDir(cfg.Dir), nil
}
