package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/leapstack-labs/dbbridge/internal/testutil"
	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) (*Driver, *driver.SQLDatabase) {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, "memory", ":memory:", nil)
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE events (id INTEGER PRIMARY KEY, kind VARCHAR NOT NULL, payload JSON, amount DOUBLE DEFAULT 1.5)`,
		`INSERT INTO events VALUES (3, 'click', '{"x": 1}', 2.0), (1, 'view', NULL, 0.5), (2, 'buy', '[1,2]', 10)`,
		`CREATE VIEW purchases AS SELECT id, amount FROM events WHERE kind = 'buy'`,
	} {
		_, err := db.DB.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	d := New([]*driver.SQLDatabase{db}, "", testutil.NewTestLogger(t))
	t.Cleanup(func() { _ = d.Close() })
	return d, db
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setupPath(t)
			db, err := Open(context.Background(), "test", path, &Params{Settings: map[string]string{"threads": "2"}})
			require.NoError(t, err)
			defer func() { _ = db.DB.Close() }()

			if tt.verify != nil {
				tt.verify(t, path)
			}
		})
	}
}

func TestDriver_TableNames(t *testing.T) {
	d, db := setupDB(t)

	names, err := d.TableNames(context.Background(), db)
	require.NoError(t, err)
	slices.Sort(names)
	assert.Equal(t, []string{"events", "purchases"}, names)
}

func TestDriver_TableStructure(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	s, err := d.TableStructure(ctx, db, "events")
	require.NoError(t, err)
	require.Len(t, s.StructureValues, 4)
	assert.Equal(t, "id", s.StructureValues[0][0])
	assert.Equal(t, "INTEGER", s.StructureValues[0][1])
	assert.Equal(t, true, s.StructureValues[0][3])
	assert.Equal(t, true, s.StructureValues[1][2])
	assert.Equal(t, [][]any{{"id", "INTEGER"}}, s.IndexesValues)

	_, err = d.TableStructure(ctx, db, "ghost")
	assert.ErrorIs(t, err, driver.ErrTableNotFound)
}

func TestDriver_TableData(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		order   string
		reverse bool
		start   int
		count   int
		wantIDs []any
	}{
		{name: "insertion order", wantIDs: []any{int64(3), int64(1), int64(2)}, count: 10},
		{name: "sorted", order: "id", wantIDs: []any{int64(1), int64(2), int64(3)}, count: 10},
		{name: "reversed", order: "id", reverse: true, wantIDs: []any{int64(3), int64(2), int64(1)}, count: 10},
		{name: "window", order: "id", start: 1, count: 1, wantIDs: []any{int64(2)}},
		{name: "past the end", order: "id", start: 5, count: 3, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := d.TableData(ctx, db, "events", tt.order, tt.reverse, tt.start, tt.count)
			require.NoError(t, err)
			assert.Equal(t, int64(3), page.Total)
			assert.Equal(t, len(tt.wantIDs), page.Count)

			var ids []any
			for _, row := range page.Values {
				ids = append(ids, row[0])
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestDriver_TableData_View(t *testing.T) {
	d, db := setupDB(t)

	page, err := d.TableData(context.Background(), db, "purchases", "", false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount"}, page.Columns)
	assert.Equal(t, 1, page.Count)
}

func TestDriver_TableInfo(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	info, err := d.TableInfo(ctx, db, "events")
	require.NoError(t, err)
	assert.Contains(t, info.Definition, "CREATE TABLE")

	info, err = d.TableInfo(ctx, db, "purchases")
	require.NoError(t, err)
	assert.Contains(t, info.Definition, "CREATE VIEW")

	_, err = d.TableInfo(ctx, db, "ghost")
	assert.ErrorIs(t, err, driver.ErrTableNotFound)
}

func TestDriver_ExecuteSQL(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	res, err := d.ExecuteSQL(ctx, db, "UPDATE events SET amount = 0 WHERE id > 1")
	require.NoError(t, err)
	assert.Equal(t, core.ExecuteUpdateDelete, res.Type)
	require.NotNil(t, res.AffectedCount)
	assert.Equal(t, int64(2), *res.AffectedCount)

	res, err = d.ExecuteSQL(ctx, db, "SELECT kind FROM events ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"view"}, {"buy"}, {"click"}}, res.Values)
}

func TestOpenFactory_DefaultsToMemory(t *testing.T) {
	drv, err := driver.Open(context.Background(), core.DriverConfig{Type: "duckdb"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = drv.(*Driver).Close() })

	dbs, err := drv.Databases(context.Background())
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, "memory", dbs[0].Name())
}
