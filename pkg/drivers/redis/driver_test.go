package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/dbbridge/internal/testutil"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	typ      string
	ttl      time.Duration
	value    any
	ttlErr   error
	valueErr error
}

type fakeStore struct {
	entries map[string]fakeEntry
	closed  bool
}

func (f *fakeStore) Keys(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeStore) Type(_ context.Context, key string) (string, error) {
	e, ok := f.entries[key]
	if !ok {
		return "none", nil
	}
	return e.typ, nil
}

func (f *fakeStore) TTL(_ context.Context, key string) (time.Duration, error) {
	e := f.entries[key]
	return e.ttl, e.ttlErr
}

func (f *fakeStore) Value(_ context.Context, key, _ string) (any, error) {
	e := f.entries[key]
	return e.value, e.valueErr
}

func (f *fakeStore) Keyspace(_ context.Context) (string, error) {
	return "# Keyspace\r\ndb0:keys=5,expires=1,avg_ttl=0\r\ndb3:keys=1,expires=0,avg_ttl=0\r\n", nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func setupDriver(t *testing.T) (*Driver, *Database, *fakeStore) {
	t.Helper()
	fs := &fakeStore{entries: map[string]fakeEntry{
		"user:2":  {typ: "string", ttl: -1, value: "bob"},
		"user:1":  {typ: "string", ttl: 90 * time.Second, value: "alice"},
		"session": {typ: "hash", ttl: -1, value: map[string]string{"id": "s1"}},
		"queue":   {typ: "list", ttl: -1, value: []string{"a", "b"}},
		"ranking": {typ: "zset", ttl: -1, value: []Member{{Member: "x", Score: 1.5}}},
	}}
	db := &Database{Label: "db0", Index: 0, Store: fs}
	return New([]*Database{db}, testutil.NewTestLogger(t)), db, fs
}

func TestDriver_TableNames(t *testing.T) {
	d, db, _ := setupDriver(t)

	names, err := d.TableNames(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"hash", "list", "string", "zset"}, names)
}

func TestDriver_TableStructure(t *testing.T) {
	d, db, _ := setupDriver(t)

	s, err := d.TableStructure(context.Background(), db, "hash")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"key", "string"}, {"ttl", "integer"}, {"value", "map"}}, s.StructureValues)

	_, err = d.TableStructure(context.Background(), db, "set")
	assert.ErrorIs(t, err, driver.ErrTableNotFound)
}

func TestDriver_TableData(t *testing.T) {
	d, db, _ := setupDriver(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		table    string
		order    string
		reverse  bool
		wantRows [][]any
	}{
		{
			name:  "strings by key",
			table: "string",
			order: "key",
			wantRows: [][]any{
				{"user:1", int64(90), "alice"},
				{"user:2", int64(-1), "bob"},
			},
		},
		{
			name:    "strings by ttl reversed",
			table:   "string",
			order:   "ttl",
			reverse: true,
			wantRows: [][]any{
				{"user:1", int64(90), "alice"},
				{"user:2", int64(-1), "bob"},
			},
		},
		{
			name:     "hash rendered as json",
			table:    "hash",
			wantRows: [][]any{{"session", int64(-1), "{\n  \"id\": \"s1\"\n}"}},
		},
		{
			name:     "sorted set members",
			table:    "zset",
			wantRows: [][]any{{"ranking", int64(-1), "[\n  {\n    \"member\": \"x\",\n    \"score\": 1.5\n  }\n]"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := d.TableData(ctx, db, tt.table, tt.order, tt.reverse, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, Columns, page.Columns)
			assert.Equal(t, tt.wantRows, page.Values)
			assert.Equal(t, int64(len(tt.wantRows)), page.Total)
		})
	}
}

func TestDriver_TableData_Window(t *testing.T) {
	d, db, _ := setupDriver(t)

	page, err := d.TableData(context.Background(), db, "string", "key", false, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "user:2", page.Values[0][0])

	_, err = d.TableData(context.Background(), db, "string", "size", false, 0, 5)
	assert.ErrorIs(t, err, driver.ErrColumnNotFound)
}

func TestDriver_TableData_KeyExpiresDuringRead(t *testing.T) {
	tests := []struct {
		name    string
		entry   fakeEntry
		wantErr bool
	}{
		{
			name:  "value read returns nil reply",
			entry: fakeEntry{typ: "string", ttl: -1, valueErr: goredis.Nil},
		},
		{
			name:  "ttl reports missing key",
			entry: fakeEntry{typ: "string", ttlErr: ErrKeyGone},
		},
		{
			name:  "value read reports missing key",
			entry: fakeEntry{typ: "string", ttl: 5 * time.Second, valueErr: ErrKeyGone},
		},
		{
			name:    "other read errors fail the page",
			entry:   fakeEntry{typ: "string", ttl: -1, valueErr: errors.New("connection reset")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{entries: map[string]fakeEntry{
				"user:1": {typ: "string", ttl: -1, value: "alice"},
				"user:2": tt.entry,
			}}
			db := &Database{Label: "db0", Store: fs}
			d := New([]*Database{db}, testutil.NewTestLogger(t))

			page, err := d.TableData(context.Background(), db, "string", "key", false, 0, 10)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, [][]any{{"user:1", int64(-1), "alice"}}, page.Values)
			assert.Equal(t, 1, page.Count)
			assert.Equal(t, int64(1), page.Total)
		})
	}
}

func TestDriver_TableInfo(t *testing.T) {
	d, db, _ := setupDriver(t)

	info, err := d.TableInfo(context.Background(), db, "string")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"keys\": 2,\n  \"keyspace\": \"keys=5,expires=1,avg_ttl=0\",\n  \"type\": \"string\"\n}", info.Definition)
}

func TestDriver_Close(t *testing.T) {
	d, _, fs := setupDriver(t)

	require.NoError(t, d.Close())
	assert.True(t, fs.closed)
}

func TestKeyspaceLine(t *testing.T) {
	info := "# Keyspace\r\ndb0:keys=5,expires=1\r\ndb10:keys=2,expires=0\r\n"

	assert.Equal(t, "keys=5,expires=1", keyspaceLine(info, 0))
	assert.Equal(t, "keys=2,expires=0", keyspaceLine(info, 10))
	assert.Equal(t, "", keyspaceLine(info, 1))
}
