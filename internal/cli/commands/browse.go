package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbbridge/internal/cli/output"
	"github.com/leapstack-labs/dbbridge/pkg/codec"
	"github.com/leapstack-labs/dbbridge/pkg/protocol"
	"github.com/spf13/cobra"
)

func parseDatabaseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid database id %q: must be a positive integer", arg)
	}
	return id, nil
}

// NewDatabasesCommand creates the databases command.
func NewDatabasesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "databases",
		Aliases: []string{"ls"},
		Short:   "List databases and their tables",
		Long: `List every database exposed by the configured drivers.

Identifiers are assigned in configuration order starting at 1 and are
valid for this invocation only.`,
		Example: `  dbbridge databases
  dbbridge databases -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var entries []codec.DatabaseEntry
			payload, err := cctx.Conn.Call(cmd.Context(), protocol.CommandDatabaseList, nil)
			if err != nil {
				return err
			}
			return renderPayload(cctx.Renderer, payload, &entries, func() {
				renderDatabases(cctx.Renderer, entries)
			})
		},
	}
}

func renderDatabases(r *output.Renderer, entries []codec.DatabaseEntry) {
	if len(entries) == 0 {
		r.Println("(no databases)")
		return
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{strconv.Itoa(e.ID), e.Name, strings.Join(e.Tables, ", ")}
	}
	r.Table([]string{"id", "name", "tables"}, rows)
}

// NewStructureCommand creates the structure command.
func NewStructureCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "structure <database-id> <table>",
		Short:   "Show the columns and indexes of a table",
		Example: `  dbbridge structure 1 customers`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDatabaseID(args[0])
			if err != nil {
				return err
			}
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			payload, err := cctx.Conn.Call(cmd.Context(), protocol.CommandGetTableStructure,
				protocol.Params{"databaseId": id, "table": args[1]})
			if err != nil {
				return err
			}
			var s codec.TableStructureResponse
			return renderPayload(cctx.Renderer, payload, &s, func() {
				cctx.Renderer.Cells(s.StructureColumns, s.StructureValues)
				if len(s.IndexesValues) > 0 {
					cctx.Renderer.Println()
					cctx.Renderer.Println("Indexes:")
					cctx.Renderer.Cells(s.IndexesColumns, s.IndexesValues)
				}
			})
		},
	}
}

// DataOptions holds options for the data command.
type DataOptions struct {
	Order   string
	Reverse bool
	Start   int
	Count   int
}

// NewDataCommand creates the data command.
func NewDataCommand() *cobra.Command {
	opts := &DataOptions{}
	cmd := &cobra.Command{
		Use:   "data <database-id> <table>",
		Short: "Show a page of rows from a table",
		Example: `  dbbridge data 1 orders
  dbbridge data 1 orders --order quantity --reverse --count 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDatabaseID(args[0])
			if err != nil {
				return err
			}
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			params := protocol.Params{"databaseId": id, "table": args[1], "reverse": opts.Reverse, "start": opts.Start}
			if opts.Order != "" {
				params["order"] = opts.Order
			}
			if cmd.Flags().Changed("count") {
				params["count"] = opts.Count
			}

			payload, err := cctx.Conn.Call(cmd.Context(), protocol.CommandGetTableData, params)
			if err != nil {
				return err
			}
			var page codec.TableDataResponse
			return renderPayload(cctx.Renderer, payload, &page, func() {
				renderPage(cctx.Renderer, page)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Order, "order", "", "Column to sort by")
	cmd.Flags().BoolVar(&opts.Reverse, "reverse", false, "Sort descending")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "Index of the first row")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "Number of rows (default: page_size)")
	return cmd
}

func renderPage(r *output.Renderer, page codec.TableDataResponse) {
	r.Cells(page.Columns, page.Values)
	if page.Count == 0 {
		r.Printf("(0 of %d rows)\n", page.Total)
		return
	}
	r.Printf("(rows %d-%d of %d)\n", page.Start+1, page.Start+page.Count, page.Total)
}

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "info <database-id> <table>",
		Short:   "Show the engine definition of a table",
		Example: `  dbbridge info 1 order_totals`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDatabaseID(args[0])
			if err != nil {
				return err
			}
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			payload, err := cctx.Conn.Call(cmd.Context(), protocol.CommandGetTableInfo,
				protocol.Params{"databaseId": id, "table": args[1]})
			if err != nil {
				return err
			}
			var info codec.TableInfoResponse
			return renderPayload(cctx.Renderer, payload, &info, func() {
				cctx.Renderer.Println(info.Definition)
			})
		},
	}
}

// renderPayload prints payload as JSON in JSON mode. Otherwise it decodes
// payload into v and calls table.
func renderPayload(r *output.Renderer, payload []byte, v any, table func()) error {
	if r.Mode() == output.ModeJSON {
		return r.RawJSON(payload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	table()
	return nil
}
