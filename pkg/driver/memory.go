package driver

import (
	"cmp"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/dbbridge/pkg/core"
)

// Window clamps a start/count pair against total rows and returns the
// half-open index range to slice.
func Window(total, start, count int) (lo, hi int) {
	if start < 0 {
		start = 0
	}
	if count < 0 {
		count = 0
	}
	lo = min(start, total)
	hi = min(lo+count, total)
	return lo, hi
}

// Page sorts rows in memory by the column at index col (ignored when col is
// negative), then windows them. It is used by engines without an ordering
// query facility. rows is sorted in place.
func Page(columns []string, rows [][]any, col int, reverse bool, start, count int) *core.TableDataPage {
	if col >= 0 {
		SortRows(rows, col, reverse)
	}
	lo, hi := Window(len(rows), start, count)
	window := rows[lo:hi]
	values := make([][]any, len(window))
	copy(values, window)
	return &core.TableDataPage{
		Columns: columns,
		Values:  values,
		Start:   start,
		Count:   len(values),
		Total:   int64(len(rows)),
	}
}

// ColumnIndex returns the position of name in columns, or ErrColumnNotFound.
// An empty name yields -1 and no error.
func ColumnIndex(columns []string, name string) (int, error) {
	if name == "" {
		return -1, nil
	}
	i := slices.Index(columns, name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return i, nil
}

// SortRows stable-sorts rows by the value at index col. Ties keep their
// input order in both directions.
func SortRows(rows [][]any, col int, reverse bool) {
	slices.SortStableFunc(rows, func(a, b []any) int {
		c := CompareValues(at(a, col), at(b, col))
		if reverse {
			return -c
		}
		return c
	})
}

func at(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

// CompareValues orders heterogeneous scalars: nil first, then booleans,
// numbers, strings and finally anything else by its printed form.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, *big.Int:
		return rankNumber
	case time.Time:
		return rankTime
	case string:
		return rankString
	default:
		return rankOther
	}
}

func compareNumbers(a, b any) int {
	return toBigFloat(a).Cmp(toBigFloat(b))
}

func toBigFloat(v any) *big.Float {
	f := new(big.Float)
	switch n := v.(type) {
	case int:
		f.SetInt64(int64(n))
	case int8:
		f.SetInt64(int64(n))
	case int16:
		f.SetInt64(int64(n))
	case int32:
		f.SetInt64(int64(n))
	case int64:
		f.SetInt64(n)
	case uint:
		f.SetUint64(uint64(n))
	case uint8:
		f.SetUint64(uint64(n))
	case uint16:
		f.SetUint64(uint64(n))
	case uint32:
		f.SetUint64(uint64(n))
	case uint64:
		f.SetUint64(n)
	case float32:
		setFloat(f, float64(n))
	case float64:
		setFloat(f, n)
	case *big.Int:
		f.SetInt(n)
	}
	return f
}

// setFloat maps NaN to zero since big.Float cannot represent it.
func setFloat(f *big.Float, v float64) {
	if v != v {
		f.SetInt64(0)
		return
	}
	f.SetFloat64(v)
}
