package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/dbbridge/internal/cli/output"
	"github.com/leapstack-labs/dbbridge/pkg/codec"
	"github.com/leapstack-labs/dbbridge/pkg/protocol"
	"github.com/spf13/cobra"
)

const (
	shellPrompt     = "dbbridge> "
	shellContPrompt = "     ...> "
)

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Browse databases interactively",
		Long: `Start an interactive shell over the configured databases.

Dot-commands issue browse commands; any other input is executed as a raw
statement on the selected database once terminated by a semicolon.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return runShell(cmd, cctx)
		},
	}
}

func runShell(cmd *cobra.Command, cctx *CommandContext) error {
	ctx := cmd.Context()
	sh := &shell{cctx: cctx, errOut: cmd.ErrOrStderr()}

	historyFile := ""
	if dir, err := os.UserCacheDir(); err == nil {
		historyFile = filepath.Join(dir, "dbbridge", "shell_history")
		_ = os.MkdirAll(filepath.Dir(historyFile), 0750)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    sh.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cctx.Renderer.Println("dbbridge shell")
	cctx.Renderer.Println("Type .help for commands, .quit to exit")
	cctx.Renderer.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			sh.buf.Reset()
			rl.SetPrompt(shellPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if sh.handleLine(ctx, line) {
			return nil
		}
		if sh.buf.Len() > 0 {
			rl.SetPrompt(shellContPrompt)
		} else {
			rl.SetPrompt(shellPrompt)
		}
	}
}

// shell holds the state of one interactive session.
type shell struct {
	cctx     *CommandContext
	errOut   io.Writer
	database int
	buf      strings.Builder
}

// handleLine processes one input line and reports whether to quit.
func (s *shell) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		quit, err := s.dotCommand(ctx, line)
		if err != nil {
			s.printError(err)
		}
		return quit
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString(" ")
		return false
	}
	query := strings.TrimSuffix(s.buf.String(), ";")
	s.buf.Reset()

	if s.database == 0 {
		s.printError(errors.New("no database selected (use .use <id>)"))
		return false
	}
	payload, err := s.cctx.Conn.Call(ctx, protocol.CommandExecute,
		protocol.Params{"databaseId": s.database, "value": query})
	if err == nil {
		var res codec.ExecuteResponse
		err = renderPayload(s.cctx.Renderer, payload, &res, func() {
			renderExecuteResult(s.cctx.Renderer, res)
		})
	}
	if err != nil {
		s.printError(err)
	}
	return false
}

func (s *shell) printError(err error) {
	_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
}

func (s *shell) dotCommand(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	r := s.cctx.Renderer

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true, nil

	case ".help":
		printShellHelp(r)

	case ".databases":
		var entries []codec.DatabaseEntry
		payload, err := s.cctx.Conn.Call(ctx, protocol.CommandDatabaseList, nil)
		if err != nil {
			return false, err
		}
		return false, renderPayload(r, payload, &entries, func() { renderDatabases(r, entries) })

	case ".use":
		if len(parts) != 2 {
			return false, errors.New("usage: .use <database-id>")
		}
		id, err := parseDatabaseID(parts[1])
		if err != nil {
			return false, err
		}
		s.database = id
		r.Printf("using database %d\n", id)

	case ".tables":
		entry, err := s.currentDatabase(ctx)
		if err != nil {
			return false, err
		}
		for _, t := range entry.Tables {
			r.Println(t)
		}

	case ".schema":
		if len(parts) != 2 {
			return false, errors.New("usage: .schema <table>")
		}
		return false, s.call(ctx, protocol.CommandGetTableStructure, protocol.Params{"table": parts[1]},
			func(payload []byte) error {
				var st codec.TableStructureResponse
				return renderPayload(r, payload, &st, func() { r.Cells(st.StructureColumns, st.StructureValues) })
			})

	case ".data":
		if len(parts) < 2 || len(parts) > 4 {
			return false, errors.New("usage: .data <table> [order] [desc]")
		}
		params := protocol.Params{"table": parts[1]}
		if len(parts) > 2 {
			params["order"] = parts[2]
		}
		if len(parts) > 3 {
			params["reverse"] = strings.EqualFold(parts[3], "desc")
		}
		return false, s.call(ctx, protocol.CommandGetTableData, params, func(payload []byte) error {
			var page codec.TableDataResponse
			return renderPayload(r, payload, &page, func() { renderPage(r, page) })
		})

	case ".info":
		if len(parts) != 2 {
			return false, errors.New("usage: .info <table>")
		}
		return false, s.call(ctx, protocol.CommandGetTableInfo, protocol.Params{"table": parts[1]},
			func(payload []byte) error {
				var info codec.TableInfoResponse
				return renderPayload(r, payload, &info, func() { r.Println(info.Definition) })
			})

	case ".call":
		if len(parts) < 2 {
			return false, errors.New("usage: .call <method> [params-json]")
		}
		params := protocol.Params{}
		rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
		if raw := strings.TrimSpace(strings.TrimPrefix(rest, parts[1])); raw != "" {
			if err := json.Unmarshal([]byte(raw), &params); err != nil {
				return false, fmt.Errorf("invalid params: %w", err)
			}
		}
		payload, err := s.cctx.Conn.Call(ctx, parts[1], params)
		if err != nil {
			return false, err
		}
		return false, r.RawJSON(payload)

	case ".clear":
		r.Printf("\033[H\033[2J")

	default:
		return false, fmt.Errorf("unknown command: %s (type .help for commands)", parts[0])
	}
	return false, nil
}

// call runs a table command on the selected database.
func (s *shell) call(ctx context.Context, method string, params protocol.Params, render func([]byte) error) error {
	if s.database == 0 {
		return errors.New("no database selected (use .use <id>)")
	}
	params["databaseId"] = s.database
	payload, err := s.cctx.Conn.Call(ctx, method, params)
	if err != nil {
		return err
	}
	return render(payload)
}

func (s *shell) currentDatabase(ctx context.Context) (codec.DatabaseEntry, error) {
	if s.database == 0 {
		return codec.DatabaseEntry{}, errors.New("no database selected (use .use <id>)")
	}
	var entries []codec.DatabaseEntry
	if err := s.cctx.Conn.CallInto(ctx, protocol.CommandDatabaseList, nil, &entries); err != nil {
		return codec.DatabaseEntry{}, err
	}
	for _, e := range entries {
		if e.ID == s.database {
			return e, nil
		}
	}
	return codec.DatabaseEntry{}, protocol.NewInvalidDatabaseError()
}

func printShellHelp(r *output.Renderer) {
	r.Println(`
Commands:
  .help                      Show this help message
  .databases                 List databases
  .use <id>                  Select a database
  .tables                    List tables of the selected database
  .schema <table>            Show the structure of a table
  .data <table> [col] [desc] Show the first page of a table
  .info <table>              Show the definition of a table
  .call <method> [json]      Send a raw protocol command
  .clear                     Clear the screen
  .quit / .exit              Exit the shell

Statements end with a semicolon (;) and run on the selected database.`)
}

// completer offers dot-commands, database ids and every table name.
func (s *shell) completer(ctx context.Context) *readline.PrefixCompleter {
	var entries []codec.DatabaseEntry
	_ = s.cctx.Conn.CallInto(ctx, protocol.CommandDatabaseList, nil, &entries)

	var ids, tables []readline.PrefixCompleterInterface
	seen := make(map[string]bool)
	for _, e := range entries {
		ids = append(ids, readline.PcItem(strconv.Itoa(e.ID)))
		for _, t := range e.Tables {
			if !seen[t] {
				seen[t] = true
				tables = append(tables, readline.PcItem(t))
			}
		}
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".databases"),
		readline.PcItem(".use", ids...),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".data", tables...),
		readline.PcItem(".info", tables...),
		readline.PcItem(".call",
			readline.PcItem(protocol.CommandDatabaseList),
			readline.PcItem(protocol.CommandGetTableStructure),
			readline.PcItem(protocol.CommandGetTableData),
			readline.PcItem(protocol.CommandGetTableInfo),
			readline.PcItem(protocol.CommandExecute),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
