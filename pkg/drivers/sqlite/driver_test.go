package sqlite

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

func setupDB(t *testing.T) (*Driver, core.Descriptor) {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, "app", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)

	_, err = db.DB.ExecContext(ctx, `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			score REAL DEFAULT 0,
			avatar BLOB
		);
		CREATE TABLE tags (label TEXT PRIMARY KEY, weight INTEGER) WITHOUT ROWID;
		CREATE VIEW top_users AS SELECT name FROM users WHERE score > 5;
		INSERT INTO users (name, score) VALUES ('carol', 7.5), ('alice', 3), ('bob', 9), ('dave', NULL);
		INSERT INTO tags VALUES ('b', 2), ('a', 1);
	`)
	require.NoError(t, err)

	d := New([]*driver.SQLDatabase{db}, testutil.NewTestLogger(t))
	t.Cleanup(func() { _ = d.Close() })
	return d, db
}

func TestDriver_TableNames(t *testing.T) {
	d, db := setupDB(t)

	names, err := d.TableNames(context.Background(), db)
	require.NoError(t, err)

	slices.Sort(names)
	assert.Equal(t, []string{"tags", "top_users", "users"}, names)
}

func TestDriver_TableNames_InternalPrefix(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "app", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)

	_, err = db.DB.ExecContext(ctx, `
		CREATE TABLE sqlites (id INTEGER);
		CREATE TABLE sqlite1 (id INTEGER);
		CREATE TABLE counters (id INTEGER PRIMARY KEY AUTOINCREMENT, n INTEGER);
		INSERT INTO counters (n) VALUES (1);
		CREATE INDEX counters_n ON counters (n);
		ANALYZE;
	`)
	require.NoError(t, err)

	d := New([]*driver.SQLDatabase{db}, testutil.NewTestLogger(t))
	t.Cleanup(func() { _ = d.Close() })

	names, err := d.TableNames(ctx, db)
	require.NoError(t, err)

	slices.Sort(names)
	assert.Equal(t, []string{"counters", "sqlite1", "sqlites"}, names)
}

func TestDriver_TableStructure(t *testing.T) {
	d, db := setupDB(t)

	s, err := d.TableStructure(context.Background(), db, "users")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "type", "not null", "primary key", "default value"}, s.StructureColumns)
	require.Len(t, s.StructureValues, 4)
	assert.Equal(t, []any{"id", "INTEGER", false, true, nil}, s.StructureValues[0])
	assert.Equal(t, []any{"name", "TEXT", true, false, nil}, s.StructureValues[1])
	assert.Equal(t, []any{"score", "REAL", false, false, "0"}, s.StructureValues[2])
	assert.Equal(t, [][]any{{"id", "INTEGER"}}, s.IndexesValues)
}

func TestDriver_TableStructure_Missing(t *testing.T) {
	d, db := setupDB(t)

	_, err := d.TableStructure(context.Background(), db, "ghost")
	assert.ErrorIs(t, err, driver.ErrTableNotFound)
}

func TestDriver_TableData_DefaultOrder(t *testing.T) {
	d, db := setupDB(t)

	page, err := d.TableData(context.Background(), db, "users", "", false, 0, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "score", "avatar"}, page.Columns)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, []any{int64(1), "carol", 7.5, nil}, page.Values[0])
	assert.Equal(t, []any{int64(2), "alice", 3.0, nil}, page.Values[1])
}

func TestDriver_TableData_SortAndReverse(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	asc, err := d.TableData(ctx, db, "users", "name", false, 0, 10)
	require.NoError(t, err)
	desc, err := d.TableData(ctx, db, "users", "name", true, 0, 10)
	require.NoError(t, err)

	reversed := slices.Clone(desc.Values)
	slices.Reverse(reversed)
	assert.Equal(t, asc.Values, reversed)
	assert.Equal(t, "alice", asc.Values[0][1])
}

func TestDriver_TableData_Window(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	for start := 0; start <= 5; start++ {
		for count := 0; count <= 5; count++ {
			page, err := d.TableData(ctx, db, "users", "id", false, start, count)
			require.NoError(t, err)
			assert.Equal(t, min(count, max(0, 4-start)), page.Count, "start=%d count=%d", start, count)
			assert.Equal(t, int64(4), page.Total)
		}
	}
}

func TestDriver_TableData_WithoutRowIDAndView(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	page, err := d.TableData(ctx, db, "tags", "", false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)

	page, err = d.TableData(ctx, db, "top_users", "", false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestDriver_TableData_UnknownOrder(t *testing.T) {
	d, db := setupDB(t)

	_, err := d.TableData(context.Background(), db, "users", "nope", false, 0, 10)
	assert.ErrorIs(t, err, driver.ErrColumnNotFound)
}

func TestDriver_TableInfo(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	info, err := d.TableInfo(ctx, db, "tags")
	require.NoError(t, err)
	assert.Contains(t, info.Definition, "CREATE TABLE tags")

	_, err = d.TableInfo(ctx, db, "ghost")
	assert.ErrorIs(t, err, driver.ErrTableNotFound)
}

func TestDriver_ExecuteSQL(t *testing.T) {
	d, db := setupDB(t)
	ctx := context.Background()

	res, err := d.ExecuteSQL(ctx, db, "INSERT INTO users (name) VALUES ('erin')")
	require.NoError(t, err)
	assert.Equal(t, core.ExecuteInsert, res.Type)
	require.NotNil(t, res.InsertedID)
	assert.Equal(t, int64(5), *res.InsertedID)

	res, err = d.ExecuteSQL(ctx, db, "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, res.Columns)
	assert.Equal(t, [][]any{{int64(5)}}, res.Values)

	_, err = d.ExecuteSQL(ctx, db, "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_table")
}

func TestDriver_DirectoryEnumeration(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, name := range []string{"b.db", "a.sqlite"} {
		db, err := Open(ctx, name, filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = db.DB.ExecContext(ctx, "CREATE TABLE t (x INTEGER)")
		require.NoError(t, err)
		require.NoError(t, db.DB.Close())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600))

	d := New(nil, nil).WithDir(dir)
	t.Cleanup(func() { _ = d.Close() })

	first, err := d.Databases(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a.sqlite", first[0].Name())
	assert.Equal(t, "b.db", first[1].Name())

	second, err := d.Databases(ctx)
	require.NoError(t, err)
	assert.Same(t, first[0], second[0], "open handles are reused across enumerations")

	require.NoError(t, os.Remove(filepath.Join(dir, "b.db")))
	third, err := d.Databases(ctx)
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, "a.sqlite", third[0].Name())
}

func TestOpenFactory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")

	drv, err := driver.Open(context.Background(), core.DriverConfig{
		Type:      "sqlite",
		Databases: []core.DatabaseConfig{{Path: path}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = drv.(*Driver).Close() })

	dbs, err := drv.Databases(context.Background())
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, "f.db", dbs[0].Name())
}
