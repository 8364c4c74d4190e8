package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/dbbridge/internal/cli/config"
	"github.com/leapstack-labs/dbbridge/internal/cli/output"
	"github.com/leapstack-labs/dbbridge/internal/transport/local"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"github.com/leapstack-labs/dbbridge/pkg/manager"
	"github.com/leapstack-labs/dbbridge/pkg/protocol"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Manager  *manager.Manager
	Plugin   *protocol.Plugin
	Conn     *local.Conn
	Renderer *output.Renderer
}

// NewCommandContext opens the configured drivers and connects a local
// protocol connection to them. The cleanup function closes the drivers and
// must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cctx := NewCommandContextWithoutDrivers(cmd)

	m, err := openManager(cmd.Context(), cctx.Cfg, cctx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cctx.Manager = m
	cctx.Plugin = protocol.NewPlugin(m,
		protocol.WithLogger(cctx.Logger),
		protocol.WithPageSize(cctx.Cfg.PageSize),
	)
	cctx.Conn = local.Connect(cmd.Context(), cctx.Plugin)

	cleanup := func() {
		if err := m.Close(); err != nil {
			cctx.Logger.Warn("failed to close drivers", "error", err)
		}
	}
	return cctx, cleanup, nil
}

// NewCommandContextWithoutDrivers creates a CommandContext that opens no
// database connection.
func NewCommandContextWithoutDrivers(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// getConfig returns the loaded configuration, or defaults when none was
// loaded (commands constructed outside the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg := &config.Config{Output: config.DefaultOutput}
	cfg.ApplyDefaults()
	return cfg
}

// openManager opens every configured driver in order. The process realm is
// published first so an "objects" driver can expose it.
func openManager(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*manager.Manager, error) {
	var m *manager.Manager
	if err := publishProcessRealm(func() *manager.Manager { return m }); err != nil {
		return nil, err
	}

	drivers := make([]driver.Driver, 0, len(cfg.Drivers))
	for i, dc := range cfg.Drivers {
		drv, err := driver.Open(ctx, dc, logger)
		if err != nil {
			err = fmt.Errorf("drivers[%d] (%s): %w", i, dc.Type, err)
			for _, opened := range drivers {
				if c, ok := opened.(io.Closer); ok {
					err = errors.Join(err, c.Close())
				}
			}
			return nil, err
		}
		drivers = append(drivers, drv)
	}

	m = manager.New(drivers, manager.WithLogger(logger))
	return m, nil
}
