package driver

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownDriverError_Error(t *testing.T) {
	err := &UnknownDriverError{
		Type:      "fake_db",
		Available: []string{"duckdb", "sqlite"},
	}

	msg := err.Error()

	assert.Contains(t, msg, "fake_db", "error should mention the unknown type")
	assert.Contains(t, msg, "duckdb", "error should list available drivers")
	assert.Contains(t, msg, "dbbridge.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("test_driver_internal", func(context.Context, core.DriverConfig, *slog.Logger) (Driver, error) {
		return nil, nil
	})

	assert.True(t, IsRegistered("test_driver_internal"))

	factory, ok := Get("test_driver_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
	assert.Contains(t, List(), "test_driver_internal")
}

func TestOpen_EmptyType(t *testing.T) {
	_, err := Open(context.Background(), core.DriverConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, "driver type not specified", err.Error())
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), core.DriverConfig{Type: "nope"}, nil)

	var unknown *UnknownDriverError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Type)
}

func TestOpen_PassesConfigAndLogger(t *testing.T) {
	var gotCfg core.DriverConfig
	var gotLogger *slog.Logger
	Register("test_driver_capture", func(_ context.Context, cfg core.DriverConfig, logger *slog.Logger) (Driver, error) {
		gotCfg = cfg
		gotLogger = logger
		return nil, errors.New("boom")
	})

	_, err := Open(context.Background(), core.DriverConfig{Type: "test_driver_capture", Dir: "/tmp"}, nil)
	require.EqualError(t, err, "boom")
	assert.Equal(t, "/tmp", gotCfg.Dir)
	assert.NotNil(t, gotLogger, "nil logger must be replaced")
}

func TestList_Sorted(t *testing.T) {
	Register("zz_test_driver", func(context.Context, core.DriverConfig, *slog.Logger) (Driver, error) { return nil, nil })
	Register("aa_test_driver", func(context.Context, core.DriverConfig, *slog.Logger) (Driver, error) { return nil, nil })

	names := List()
	assert.IsNonDecreasing(t, names)
}
