package codec

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultPageSize is the window size used when getTableData omits count.
const DefaultPageSize = 100

// TableStructureRequest addresses one table of one database.
type TableStructureRequest struct {
	DatabaseID int
	Table      string
}

// TableInfoRequest addresses one table of one database.
type TableInfoRequest struct {
	DatabaseID int
	Table      string
}

// TableDataRequest asks for a window of rows.
type TableDataRequest struct {
	DatabaseID int
	Table      string
	Order      string
	Reverse    bool
	Start      int
	Count      int
}

// ExecuteRequest carries a raw statement.
type ExecuteRequest struct {
	DatabaseID int
	Value      string
}

type tableParams struct {
	DatabaseID int    `mapstructure:"databaseId"`
	Table      string `mapstructure:"table"`
}

type tableDataParams struct {
	DatabaseID int    `mapstructure:"databaseId"`
	Table      string `mapstructure:"table"`
	Order      string `mapstructure:"order"`
	Reverse    bool   `mapstructure:"reverse"`
	Start      *int   `mapstructure:"start"`
	Count      *int   `mapstructure:"count"`
}

type executeParams struct {
	DatabaseID int    `mapstructure:"databaseId"`
	Value      string `mapstructure:"value"`
}

var errNotIntegral = errors.New("value is not an integer")

// integralHook lets JSON numbers (float64) land in int fields only when they
// carry no fractional part.
func integralHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() == reflect.Ptr {
		to = to.Elem()
	}
	if to.Kind() != reflect.Int {
		return data, nil
	}

	var f float64
	switch v := data.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, errNotIntegral
		}
		return int(i), nil
	default:
		return data, nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, errNotIntegral
	}
	return int(f), nil
}

func decodeParams(params map[string]any, out any) bool {
	if params == nil {
		return false
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: integralHook,
		Result:     out,
	})
	if err != nil {
		return false
	}
	return dec.Decode(params) == nil
}

// DecodeTableStructureRequest validates getTableStructure parameters.
func DecodeTableStructureRequest(params map[string]any) (TableStructureRequest, bool) {
	var p tableParams
	if !decodeParams(params, &p) || p.DatabaseID <= 0 || p.Table == "" {
		return TableStructureRequest{}, false
	}
	return TableStructureRequest{DatabaseID: p.DatabaseID, Table: p.Table}, true
}

// DecodeTableInfoRequest validates getTableInfo parameters.
func DecodeTableInfoRequest(params map[string]any) (TableInfoRequest, bool) {
	var p tableParams
	if !decodeParams(params, &p) || p.DatabaseID <= 0 || p.Table == "" {
		return TableInfoRequest{}, false
	}
	return TableInfoRequest{DatabaseID: p.DatabaseID, Table: p.Table}, true
}

// DecodeTableDataRequest validates getTableData parameters. A missing start
// means 0 and a missing count means pageSize (DefaultPageSize when pageSize
// is not positive). Negative windows are rejected.
func DecodeTableDataRequest(params map[string]any, pageSize int) (TableDataRequest, bool) {
	var p tableDataParams
	if !decodeParams(params, &p) || p.DatabaseID <= 0 || p.Table == "" {
		return TableDataRequest{}, false
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	req := TableDataRequest{
		DatabaseID: p.DatabaseID,
		Table:      p.Table,
		Order:      p.Order,
		Reverse:    p.Reverse,
		Count:      pageSize,
	}
	if p.Start != nil {
		if *p.Start < 0 {
			return TableDataRequest{}, false
		}
		req.Start = *p.Start
	}
	if p.Count != nil {
		if *p.Count < 0 {
			return TableDataRequest{}, false
		}
		req.Count = *p.Count
	}
	return req, true
}

// DecodeExecuteRequest validates execute parameters.
func DecodeExecuteRequest(params map[string]any) (ExecuteRequest, bool) {
	var p executeParams
	if !decodeParams(params, &p) || p.DatabaseID <= 0 || p.Value == "" {
		return ExecuteRequest{}, false
	}
	return ExecuteRequest{DatabaseID: p.DatabaseID, Value: p.Value}, true
}
