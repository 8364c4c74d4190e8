package driver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"
)

// FormatJSON renders a composite value as 2-space indented JSON without HTML
// escaping and without a trailing newline.
func FormatJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonSafe(v)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// NormalizeValue turns an engine value into something the cell codec accepts:
// nil, bool, string, an integer, *big.Int or a float. Byte slices become
// text (base64 when not valid UTF-8), times become RFC 3339 strings and
// composites become indented JSON.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string, int64, uint64, float64, json.Number:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint, uint8, uint16, uint32:
		return widenUnsigned(val)
	case float32:
		return float64(val)
	case *big.Int:
		if val == nil {
			return nil
		}
		return val
	case []byte:
		return bytesToString(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case time.Duration:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		return NormalizeValue(rv.Elem().Interface())
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil
		}
	}

	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		s, err := FormatJSON(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}

// NormalizeRow applies NormalizeValue to every value of a row in place.
func NormalizeRow(row []any) []any {
	for i, v := range row {
		row[i] = NormalizeValue(v)
	}
	return row
}

func widenUnsigned(v any) any {
	u := reflect.ValueOf(v).Uint()
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

func bytesToString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// jsonSafe rewrites values encoding/json cannot handle: maps with non-string
// keys and raw bytes nested in composites.
func jsonSafe(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return bytesToString(val)
	case time.Time, json.Marshaler:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = jsonSafe(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 && rv.Kind() == reflect.Array {
			if s, ok := v.(fmt.Stringer); ok {
				return s.String()
			}
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = jsonSafe(rv.Index(i).Interface())
		}
		return out
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return jsonSafe(rv.Elem().Interface())
	}
	return v
}
