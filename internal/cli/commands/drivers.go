package commands

import (
	"github.com/leapstack-labs/dbbridge/internal/cli/output"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"github.com/spf13/cobra"
)

// NewDriversCommand creates the drivers command.
func NewDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the available driver types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx := NewCommandContextWithoutDrivers(cmd)
			names := driver.List()
			if cctx.Renderer.Mode() == output.ModeJSON {
				return cctx.Renderer.JSON(names)
			}
			for _, n := range names {
				cctx.Renderer.Println(n)
			}
			return nil
		},
	}
}
