// Package manager owns the registry of databases exposed by a set of drivers.
//
// Init enumerates every driver in configuration order and every database in
// the order its driver returns them, assigning identifiers from 1. The
// registry is rebuilt in full and published atomically: readers see either
// the previous registry or the new one, never a partial one. Identifiers are
// only meaningful within the epoch that issued them.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

// ErrDatabaseNotFound is returned for identifiers absent from the current
// registry.
var ErrDatabaseNotFound = errors.New("database not found")

// Holder binds an identifier to a driver and one of its databases.
type Holder struct {
	ID         int
	Driver     driver.Driver
	Descriptor core.Descriptor
}

// Name returns the database name.
func (h Holder) Name() string { return h.Descriptor.Name() }

type registry struct {
	epoch   uint64
	holders []Holder
	byID    map[int]Holder
}

// Manager routes per-database operations by identifier.
type Manager struct {
	drivers []driver.Driver
	logger  *slog.Logger

	initMu  sync.Mutex
	current atomic.Pointer[registry]
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a manager over drivers, in configuration order. The registry
// is empty until Init is called.
func New(drivers []driver.Driver, opts ...Option) *Manager {
	m := &Manager{
		drivers: drivers,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current.Store(&registry{byID: map[int]Holder{}})
	return m
}

// Drivers returns the configured drivers.
func (m *Manager) Drivers() []driver.Driver { return m.drivers }

// Init rebuilds the registry. A driver whose enumeration fails contributes
// no databases; its error is returned, joined with the others, after the new
// registry has been published.
func (m *Manager) Init(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	next := &registry{
		epoch: m.current.Load().epoch + 1,
		byID:  make(map[int]Holder),
	}

	var errs []error
	id := 1
	for _, drv := range m.drivers {
		dbs, err := drv.Databases(ctx)
		if err != nil {
			m.logger.Error("failed to enumerate databases", "driver", drv.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", drv.Name(), err))
			continue
		}
		for _, d := range dbs {
			h := Holder{ID: id, Driver: drv, Descriptor: d}
			next.holders = append(next.holders, h)
			next.byID[id] = h
			id++
		}
	}

	m.current.Store(next)
	m.logger.Info("database registry initialized", "epoch", next.epoch, "databases", len(next.holders))
	return errors.Join(errs...)
}

// Databases returns a snapshot of the registry ordered by identifier.
func (m *Manager) Databases() []Holder {
	r := m.current.Load()
	out := make([]Holder, len(r.holders))
	copy(out, r.holders)
	return out
}

// Epoch counts completed Init calls.
func (m *Manager) Epoch() uint64 { return m.current.Load().epoch }

// Lookup resolves an identifier in the current registry.
func (m *Manager) Lookup(id int) (Holder, error) {
	h, ok := m.current.Load().byID[id]
	if !ok {
		return Holder{}, fmt.Errorf("%w: %d", ErrDatabaseNotFound, id)
	}
	return h, nil
}

// TableNames lists the tables of a database.
func (m *Manager) TableNames(ctx context.Context, id int) ([]string, error) {
	h, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return h.Driver.TableNames(ctx, h.Descriptor)
}

// TableStructure describes a table.
func (m *Manager) TableStructure(ctx context.Context, id int, table string) (*core.TableStructure, error) {
	h, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return h.Driver.TableStructure(ctx, h.Descriptor, table)
}

// TableData reads one page of a table.
func (m *Manager) TableData(ctx context.Context, id int, table, order string, reverse bool, start, count int) (*core.TableDataPage, error) {
	h, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return h.Driver.TableData(ctx, h.Descriptor, table, order, reverse, start, count)
}

// TableInfo returns the definition of a table.
func (m *Manager) TableInfo(ctx context.Context, id int, table string) (*core.TableInfo, error) {
	h, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return h.Driver.TableInfo(ctx, h.Descriptor, table)
}

// ExecuteSQL runs a raw statement. Drivers without an Executor yield
// driver.ErrUnsupported.
func (m *Manager) ExecuteSQL(ctx context.Context, id int, query string) (*core.ExecuteResult, error) {
	h, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	exec, ok := h.Driver.(driver.Executor)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not execute raw statements", driver.ErrUnsupported, h.Driver.Name())
	}
	return exec.ExecuteSQL(ctx, h.Descriptor, query)
}

// Close closes every driver that holds resources.
func (m *Manager) Close() error {
	var err error
	for _, drv := range m.drivers {
		if c, ok := drv.(io.Closer); ok {
			err = errors.Join(err, c.Close())
		}
	}
	return err
}
