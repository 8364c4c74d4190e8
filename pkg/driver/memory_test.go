package driver

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		total, start, count int
		lo, hi              int
	}{
		{total: 10, start: 0, count: 5, lo: 0, hi: 5},
		{total: 10, start: 8, count: 5, lo: 8, hi: 10},
		{total: 10, start: 12, count: 5, lo: 10, hi: 10},
		{total: 0, start: 0, count: 5, lo: 0, hi: 0},
		{total: 3, start: 1, count: 0, lo: 1, hi: 1},
	}

	for _, tt := range tests {
		lo, hi := Window(tt.total, tt.start, tt.count)
		assert.Equal(t, tt.lo, lo, "lo for %+v", tt)
		assert.Equal(t, tt.hi, hi, "hi for %+v", tt)
	}
}

func TestPage_CountAndTotal(t *testing.T) {
	const n = 7
	for start := 0; start <= n+2; start++ {
		for count := 0; count <= n+2; count++ {
			rows := make([][]any, n)
			for i := range rows {
				rows[i] = []any{int64(i)}
			}

			page := Page([]string{"id"}, rows, -1, false, start, count)

			assert.Equal(t, min(count, max(0, n-start)), page.Count, "start=%d count=%d", start, count)
			assert.Equal(t, int64(n), page.Total)
			assert.Equal(t, start, page.Start)
		}
	}
}

func TestPage_ReverseIsExactReverse(t *testing.T) {
	build := func() [][]any {
		return [][]any{{"c", int64(3)}, {"a", int64(1)}, {"d", int64(4)}, {"b", int64(2)}}
	}

	asc := Page([]string{"name", "n"}, build(), 1, false, 0, 10)
	desc := Page([]string{"name", "n"}, build(), 1, true, 0, 10)

	reversed := slices.Clone(desc.Values)
	slices.Reverse(reversed)
	assert.Equal(t, asc.Values, reversed)
	assert.Equal(t, "a", asc.Values[0][0])
}

func TestColumnIndex(t *testing.T) {
	i, err := ColumnIndex([]string{"a", "b"}, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = ColumnIndex([]string{"a"}, "")
	require.NoError(t, err)
	assert.Equal(t, -1, i)

	_, err = ColumnIndex([]string{"a"}, "z")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestCompareValues(t *testing.T) {
	assert.Negative(t, CompareValues(nil, false))
	assert.Negative(t, CompareValues(false, true))
	assert.Negative(t, CompareValues(true, 0))
	assert.Negative(t, CompareValues(int64(2), 2.5))
	assert.Zero(t, CompareValues(int64(2), 2.0))
	assert.Positive(t, CompareValues(uint8(9), int32(-1)))
	assert.Negative(t, CompareValues(100, "1"))
	assert.Negative(t, CompareValues("a", "b"))
	assert.Zero(t, CompareValues(nil, nil))
}

func TestSortRows_StableTies(t *testing.T) {
	rows := [][]any{{1, "x"}, {0, "y"}, {1, "z"}}
	SortRows(rows, 0, true)
	assert.Equal(t, [][]any{{1, "x"}, {1, "z"}, {0, "y"}}, rows)
}
