package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/dbbridge/internal/cli/config"
	"github.com/leapstack-labs/dbbridge/internal/transport/ws"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured databases to inspector clients",
		Long: `Start the websocket server.

Clients connect to /ws and exchange command frames:

  -> {"id": 1, "method": "databaseList"}
  <- {"id": 1, "success": [{"id": 1, "name": "app.db", "tables": ["users"]}]}

Every connection rebuilds the database registry. One-shot commands can be
posted to /commands/{method} with the params object as body.`,
		Example: `  dbbridge serve
  dbbridge serve --addr 127.0.0.1:9000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := ws.NewServer(cctx.Plugin, cctx.Manager, serverConfig(cctx))
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")
	cmd.Flags().Bool("watch", false, "Rebuild the registry when sqlite directories change")
	return cmd
}

func serverConfig(cctx *CommandContext) ws.Config {
	s := cctx.Cfg.Server
	cfg := ws.Config{
		Addr:           s.Addr,
		AllowedOrigins: s.AllowedOrigins,
		ReadLimit:      s.ReadLimit,
		PingPeriod:     s.PingPeriod,
		Logger:         cctx.Logger,
	}
	if s.Watch {
		cfg.WatchDirs = watchDirs(cctx.Cfg.Drivers)
	}
	return cfg
}

// watchDirs returns the directories scanned by sqlite drivers.
func watchDirs(drivers []config.DriverConfig) []string {
	var dirs []string
	for _, d := range drivers {
		if d.Type == "sqlite" && d.Dir != "" {
			dirs = append(dirs, d.Dir)
		}
	}
	return dirs
}
