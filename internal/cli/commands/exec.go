package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/dbbridge/internal/cli/output"
	"github.com/leapstack-labs/dbbridge/pkg/codec"
	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/protocol"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Input string
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}
	cmd := &cobra.Command{
		Use:   "exec <database-id> [SQL]",
		Short: "Execute a raw statement against a database",
		Long: `Execute one raw statement against a database that accepts them.

The statement is taken from the arguments, from --input, or from standard
input when it is not a terminal.`,
		Example: `  dbbridge exec 1 "SELECT * FROM customers"
  dbbridge exec 1 --input migrate.sql
  echo "DELETE FROM orders WHERE id = 4" | dbbridge exec 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDatabaseID(args[0])
			if err != nil {
				return err
			}
			query, err := readStatement(cmd.InOrStdin(), args[1:], opts.Input)
			if err != nil {
				return err
			}

			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return runExec(cmd, cctx, id, query)
		},
	}
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the statement from a file")
	return cmd
}

// readStatement picks the statement source: arguments, file, then piped stdin.
func readStatement(stdin io.Reader, args []string, input string) (string, error) {
	var query string
	switch {
	case len(args) > 0:
		query = strings.Join(args, " ")
	case input != "":
		content, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		query = string(content)
	case !isTerminal(stdin):
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		query = string(content)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("no statement given")
	}
	return query, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runExec(cmd *cobra.Command, cctx *CommandContext, id int, query string) error {
	payload, err := cctx.Conn.Call(cmd.Context(), protocol.CommandExecute,
		protocol.Params{"databaseId": id, "value": query})
	if err != nil {
		return err
	}
	var res codec.ExecuteResponse
	return renderPayload(cctx.Renderer, payload, &res, func() {
		renderExecuteResult(cctx.Renderer, res)
	})
}

func renderExecuteResult(r *output.Renderer, res codec.ExecuteResponse) {
	switch res.Type {
	case core.ExecuteSelect:
		if len(res.Values) == 0 {
			r.Println("(0 rows)")
			return
		}
		r.Cells(res.Columns, res.Values)
		r.Printf("(%d rows)\n", len(res.Values))
	case core.ExecuteInsert:
		if res.InsertedID != nil {
			r.Printf("inserted id %d", *res.InsertedID)
		} else {
			r.Printf("inserted")
		}
		if res.AffectedCount != nil {
			r.Printf(", %d rows affected", *res.AffectedCount)
		}
		r.Println()
	case core.ExecuteUpdateDelete:
		if res.AffectedCount != nil {
			r.Printf("%d rows affected\n", *res.AffectedCount)
			return
		}
		r.Println("OK")
	default:
		r.Println("OK")
	}
}
