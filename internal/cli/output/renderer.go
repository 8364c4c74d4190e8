// Package output renders command results for the terminal or for scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbbridge/pkg/codec"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeTable Mode = "table"
	ModeJSON  Mode = "json"
)

// Renderer writes results to out and diagnostics to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewRenderer creates a renderer. Unknown modes render tables.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode != ModeJSON {
		mode = ModeTable
	}
	return &Renderer{out: out, errOut: errOut, mode: mode}
}

// Mode returns the effective output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Out returns the result writer.
func (r *Renderer) Out() io.Writer { return r.out }

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RawJSON re-indents an already encoded payload.
func (r *Renderer) RawJSON(payload json.RawMessage) error {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return err
	}
	return r.JSON(v)
}

// Table renders rows under a header using the light box style.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}
	t.Render()
}

// Cells renders wire cells as a table.
func (r *Renderer) Cells(header []string, rows [][]codec.Cell) {
	text := make([][]string, len(rows))
	for i, row := range rows {
		text[i] = make([]string, len(row))
		for j, c := range row {
			text[i][j] = CellText(c)
		}
	}
	r.Table(header, text)
}

// Println writes a line to the result writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the result writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Warnf writes a formatted diagnostic.
func (r *Renderer) Warnf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.errOut, format, a...)
}

// CellText formats one cell for display.
func CellText(c codec.Cell) string {
	switch v := c.Value.(type) {
	case nil:
		return "NULL"
	case *big.Int:
		return v.String()
	case string:
		return strings.ReplaceAll(v, "\n", "\\n")
	default:
		return fmt.Sprintf("%v", v)
	}
}
