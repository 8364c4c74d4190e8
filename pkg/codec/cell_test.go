package codec

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		name     string
		input    any
		wantType CellType
		want     any
	}{
		{name: "nil", input: nil, wantType: CellNull, want: nil},
		{name: "bool", input: true, wantType: CellBoolean, want: true},
		{name: "string", input: "hello", wantType: CellString, want: "hello"},
		{name: "int", input: 42, wantType: CellInteger, want: int64(42)},
		{name: "int32", input: int32(-7), wantType: CellInteger, want: int64(-7)},
		{name: "uint8", input: uint8(255), wantType: CellInteger, want: int64(255)},
		{name: "small big int", input: big.NewInt(9), wantType: CellInteger, want: int64(9)},
		{name: "huge big int", input: huge, wantType: CellInteger, want: huge},
		{name: "uint64 overflow", input: uint64(math.MaxUint64), wantType: CellInteger, want: new(big.Int).SetUint64(math.MaxUint64)},
		{name: "float64", input: 1.5, wantType: CellFloat, want: 1.5},
		{name: "float32", input: float32(0.25), wantType: CellFloat, want: 0.25},
		{name: "NaN", input: math.NaN(), wantType: CellString, want: "NaN"},
		{name: "positive infinity", input: math.Inf(1), wantType: CellString, want: "+Inf"},
		{name: "json integer", input: json.Number("12"), wantType: CellInteger, want: int64(12)},
		{name: "json float", input: json.Number("1.25"), wantType: CellFloat, want: 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.want, c.Value)
		})
	}
}

func TestEncode_RejectsComposites(t *testing.T) {
	inputs := []any{
		map[string]any{"a": 1},
		[]any{1, 2},
		[]byte("raw"),
		struct{ A int }{A: 1},
	}

	for _, in := range inputs {
		_, err := Encode(in)
		require.Error(t, err)

		var uve *UnsupportedValueError
		assert.ErrorAs(t, err, &uve)
	}
}

func TestMustEncode_Panics(t *testing.T) {
	assert.Panics(t, func() { MustEncode(map[string]int{}) })
	assert.NotPanics(t, func() { MustEncode("ok") })
}

func TestCell_JSONRoundTrip(t *testing.T) {
	pretty := "{\n  \"subValue\": \"test\"\n}"
	inputs := []any{nil, int64(-3), 2.75, "text", false, pretty}

	for _, in := range inputs {
		c := MustEncode(in)
		data, err := json.Marshal(c)
		require.NoError(t, err)

		var got Cell
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, c, got, "round trip of %v via %s", in, data)
	}
}

func TestCell_JSONShape(t *testing.T) {
	tests := []struct {
		cell Cell
		want string
	}{
		{cell: Null(), want: `{"type":"null"}`},
		{cell: MustEncode(7), want: `{"type":"integer","value":7}`},
		{cell: MustEncode(0.5), want: `{"type":"float","value":0.5}`},
		{cell: MustEncode("a<b"), want: `{"type":"string","value":"a<b"}`},
		{cell: MustEncode(true), want: `{"type":"boolean","value":true}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.cell)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(data))
	}
}

func TestCell_UnmarshalBigInteger(t *testing.T) {
	var c Cell
	require.NoError(t, json.Unmarshal([]byte(`{"type":"integer","value":123456789012345678901234567890}`), &c))

	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Equal(t, CellInteger, c.Type)
	assert.Equal(t, want, c.Value)
}

func TestCell_UnmarshalUnknownType(t *testing.T) {
	var c Cell
	err := json.Unmarshal([]byte(`{"type":"object","value":{}}`), &c)
	assert.Error(t, err)
}

func TestEncodeRows(t *testing.T) {
	rows, err := EncodeRows(nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = EncodeRows([][]any{{1, "a"}, {2, []int{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
	assert.Contains(t, err.Error(), "column 1")
}
