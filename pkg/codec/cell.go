// Package codec converts driver values into tagged wire cells and decodes
// inbound command parameters into typed requests.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// CellType is the tag carried by every wire cell.
type CellType string

// The closed set of cell tags.
const (
	CellNull    CellType = "null"
	CellInteger CellType = "integer"
	CellFloat   CellType = "float"
	CellString  CellType = "string"
	CellBoolean CellType = "boolean"
)

// Cell is a tagged scalar. Value is nil for null cells, int64 or *big.Int
// for integers, float64 for floats, string or bool otherwise.
type Cell struct {
	Type  CellType
	Value any
}

// UnsupportedValueError reports a value the codec refuses to encode.
// Drivers must serialize composite values before handing them over, so this
// error always points at a driver bug.
type UnsupportedValueError struct {
	Value any
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("codec: cannot encode value of type %T as a cell", e.Value)
}

// Null returns the null cell.
func Null() Cell { return Cell{Type: CellNull} }

// Encode tags a scalar value. Non-finite floats become string cells because
// JSON cannot carry them.
func Encode(v any) (Cell, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Cell{Type: CellBoolean, Value: val}, nil
	case string:
		return Cell{Type: CellString, Value: val}, nil
	case int:
		return integer(int64(val)), nil
	case int8:
		return integer(int64(val)), nil
	case int16:
		return integer(int64(val)), nil
	case int32:
		return integer(int64(val)), nil
	case int64:
		return integer(val), nil
	case uint:
		return unsigned(uint64(val)), nil
	case uint8:
		return integer(int64(val)), nil
	case uint16:
		return integer(int64(val)), nil
	case uint32:
		return integer(int64(val)), nil
	case uint64:
		return unsigned(val), nil
	case *big.Int:
		if val == nil {
			return Null(), nil
		}
		if val.IsInt64() {
			return integer(val.Int64()), nil
		}
		return Cell{Type: CellInteger, Value: new(big.Int).Set(val)}, nil
	case float32:
		return float(float64(val)), nil
	case float64:
		return float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return integer(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return Cell{}, &UnsupportedValueError{Value: v}
		}
		return float(f), nil
	default:
		return Cell{}, &UnsupportedValueError{Value: v}
	}
}

// MustEncode is Encode for values known to be scalars. It panics otherwise.
func MustEncode(v any) Cell {
	c, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return c
}

func integer(i int64) Cell {
	return Cell{Type: CellInteger, Value: i}
}

func unsigned(u uint64) Cell {
	if u <= math.MaxInt64 {
		return integer(int64(u))
	}
	return Cell{Type: CellInteger, Value: new(big.Int).SetUint64(u)}
}

func float(f float64) Cell {
	switch {
	case math.IsNaN(f):
		return Cell{Type: CellString, Value: "NaN"}
	case math.IsInf(f, 1):
		return Cell{Type: CellString, Value: "+Inf"}
	case math.IsInf(f, -1):
		return Cell{Type: CellString, Value: "-Inf"}
	}
	return Cell{Type: CellFloat, Value: f}
}

type wireCell struct {
	Type  CellType        `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON writes {"type":...,"value":...}; null cells carry no value.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.Type == CellNull || c.Type == "" {
		return []byte(`{"type":"null"}`), nil
	}
	raw, err := json.Marshal(c.Value)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal %s cell: %w", c.Type, err)
	}
	return json.Marshal(wireCell{Type: c.Type, Value: raw})
}

// UnmarshalJSON restores a cell written by MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var w wireCell
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Type {
	case CellNull:
		*c = Null()
		return nil
	case CellInteger:
		text := string(bytes.TrimSpace(w.Value))
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			*c = integer(i)
			return nil
		}
		b, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return fmt.Errorf("codec: invalid integer cell value %s", text)
		}
		*c = Cell{Type: CellInteger, Value: b}
		return nil
	case CellFloat:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return fmt.Errorf("codec: invalid float cell value: %w", err)
		}
		*c = Cell{Type: CellFloat, Value: f}
		return nil
	case CellString:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("codec: invalid string cell value: %w", err)
		}
		*c = Cell{Type: CellString, Value: s}
		return nil
	case CellBoolean:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return fmt.Errorf("codec: invalid boolean cell value: %w", err)
		}
		*c = Cell{Type: CellBoolean, Value: b}
		return nil
	default:
		return fmt.Errorf("codec: unknown cell type %q", w.Type)
	}
}

// EncodeRow tags every value of a row.
func EncodeRow(row []any) ([]Cell, error) {
	cells := make([]Cell, len(row))
	for i, v := range row {
		c, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		cells[i] = c
	}
	return cells, nil
}

// EncodeRows tags a set of rows. A nil input yields an empty, non-nil slice.
func EncodeRows(rows [][]any) ([][]Cell, error) {
	out := make([][]Cell, 0, len(rows))
	for i, row := range rows {
		cells, err := EncodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, cells)
	}
	return out, nil
}
