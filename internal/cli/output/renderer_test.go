package output

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/leapstack-labs/dbbridge/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_Mode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{mode: ModeJSON, want: ModeJSON},
		{mode: ModeTable, want: ModeTable},
		{mode: "", want: ModeTable},
		{mode: "yaml", want: ModeTable},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, NewRenderer(nil, nil, tt.mode).Mode())
		})
	}
}

func TestRenderer_Cells(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeTable)

	r.Cells([]string{"id", "name"}, [][]codec.Cell{
		{codec.MustEncode(int64(1)), codec.MustEncode("ada")},
		{codec.MustEncode(int64(2)), codec.Null()},
	})

	out := buf.String()
	assert.Contains(t, out, "┌")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "NULL")
}

func TestRenderer_RawJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)

	require.NoError(t, r.RawJSON(json.RawMessage(`{"a":[1,2]}`)))
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}\n", buf.String())
}

func TestCellText(t *testing.T) {
	huge, _ := new(big.Int).SetString("18446744073709551615", 10)

	tests := []struct {
		name string
		cell codec.Cell
		want string
	}{
		{name: "null", cell: codec.Null(), want: "NULL"},
		{name: "integer", cell: codec.MustEncode(int64(-3)), want: "-3"},
		{name: "big integer", cell: codec.Cell{Type: codec.CellInteger, Value: huge}, want: "18446744073709551615"},
		{name: "float", cell: codec.MustEncode(2.5), want: "2.5"},
		{name: "bool", cell: codec.MustEncode(true), want: "true"},
		{name: "multiline string", cell: codec.MustEncode("a\nb"), want: `a\nb`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellText(tt.cell))
		})
	}
}
