// Package driver defines the contract every storage engine adapter implements
// for dbbridge, plus helpers shared by the concrete drivers.
//
// This package contains the public contract that all drivers must implement.
// Concrete driver implementations are in pkg/drivers/ subdirectories.
package driver

import (
	"context"
	"errors"

	"github.com/leapstack-labs/dbbridge/pkg/core"
)

// Driver adapts one storage engine family to the browse protocol.
// Every method may block on engine I/O.
type Driver interface {
	// Name identifies the driver type (e.g. "sqlite").
	Name() string

	// Databases returns the logical databases this driver exposes, in a
	// stable order.
	Databases(ctx context.Context) ([]core.Descriptor, error)

	// TableNames lists tables or collections. No ordering is guaranteed.
	TableNames(ctx context.Context, d core.Descriptor) ([]string, error)

	// TableStructure describes one table: one structure row per column,
	// starting with name and type.
	TableStructure(ctx context.Context, d core.Descriptor, table string) (*core.TableStructure, error)

	// TableData returns a window of rows sorted by order (descending when
	// reverse is set). An empty order keeps the engine's natural order.
	TableData(ctx context.Context, d core.Descriptor, table, order string, reverse bool, start, count int) (*core.TableDataPage, error)

	// TableInfo returns the engine specific definition of a table.
	TableInfo(ctx context.Context, d core.Descriptor, table string) (*core.TableInfo, error)
}

// Executor is implemented by drivers whose engine accepts raw statements.
type Executor interface {
	ExecuteSQL(ctx context.Context, d core.Descriptor, query string) (*core.ExecuteResult, error)
}

var (
	// ErrUnsupported is returned for capabilities an engine family lacks.
	ErrUnsupported = errors.New("unsupported method")

	// ErrTableNotFound is returned when a table does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrColumnNotFound is returned when an order column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDescriptorMismatch is returned when a driver receives a descriptor
	// produced by another driver.
	ErrDescriptorMismatch = errors.New("descriptor does not belong to this driver")

	// ErrNotConnected is returned when a descriptor has no open handle.
	ErrNotConnected = errors.New("database connection not established")
)
