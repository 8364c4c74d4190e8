package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	setupProject(t)

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cctx, cleanup, err := NewCommandContext(cmd)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return &shell{cctx: cctx, errOut: errOut}, out, errOut
}

func TestShell_HandleLine(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantOut []string
		wantErr string
		quit    bool
	}{
		{
			name:  "quit",
			lines: []string{".quit"},
			quit:  true,
		},
		{
			name:    "statement without database",
			lines:   []string{"SELECT 1;"},
			wantErr: "no database selected",
		},
		{
			name:    "databases",
			lines:   []string{".databases"},
			wantOut: []string{"sample.db", ProcessRealm},
		},
		{
			name:    "tables of selected database",
			lines:   []string{".use 1", ".tables"},
			wantOut: []string{"using database 1", "order_totals\n"},
		},
		{
			name:    "multi-line statement",
			lines:   []string{".use 1", "SELECT name", "FROM customers", "WHERE id = 2;"},
			wantOut: []string{"Grace Hopper", "(1 rows)"},
		},
		{
			name:    "data page sorted descending",
			lines:   []string{".use 1", ".data orders quantity desc"},
			wantOut: []string{"(rows 1-4 of 4)"},
		},
		{
			name:    "schema",
			lines:   []string{".use 2", ".schema databases"},
			wantOut: []string{"driver"},
		},
		{
			name:    "raw call",
			lines:   []string{`.call getTableInfo {"databaseId": 1, "table": "customers"}`},
			wantOut: []string{"CREATE TABLE customers"},
		},
		{
			name:    "raw call with taxonomy error",
			lines:   []string{`.call getTableInfo {"databaseId": 9, "table": "customers"}`},
			wantErr: "Could not access database",
		},
		{
			name:    "unknown dot command",
			lines:   []string{".frobnicate"},
			wantErr: "unknown command: .frobnicate",
		},
		{
			name:    "tables with stale id",
			lines:   []string{".use 7", ".tables"},
			wantErr: "Could not access database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh, out, errOut := newTestShell(t)

			var quit bool
			for _, line := range tt.lines {
				quit = sh.handleLine(context.Background(), line)
			}

			assert.Equal(t, tt.quit, quit)
			for _, w := range tt.wantOut {
				assert.Contains(t, out.String(), w)
			}
			if tt.wantErr != "" {
				assert.Contains(t, errOut.String(), tt.wantErr)
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}
