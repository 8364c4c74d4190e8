package driver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/core"
)

// SQLDatabase is the descriptor used by database/sql backed drivers.
type SQLDatabase struct {
	Label string
	Path  string
	DB    *sql.DB
}

// Name returns the database label.
func (d *SQLDatabase) Name() string { return d.Label }

// BaseSQLDriver provides common database/sql functionality for drivers.
// Embed this struct in concrete driver implementations to get standard
// Close, Databases and ExecuteSQL implementations plus paging helpers.
type BaseSQLDriver struct {
	Static []*SQLDatabase
	Logger *slog.Logger
}

// Databases returns the statically configured databases.
func (b *BaseSQLDriver) Databases(_ context.Context) ([]core.Descriptor, error) {
	out := make([]core.Descriptor, len(b.Static))
	for i, d := range b.Static {
		out[i] = d
	}
	return out, nil
}

// Close closes every database connection.
func (b *BaseSQLDriver) Close() error {
	var firstErr error
	for _, d := range b.Static {
		if d.DB == nil {
			continue
		}
		if b.Logger != nil {
			b.Logger.Debug("closing database connection", "database", d.Label)
		}
		if err := d.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Handle resolves a descriptor to its connection.
func Handle(d core.Descriptor) (*sql.DB, error) {
	sd, ok := d.(*SQLDatabase)
	if !ok {
		return nil, ErrDescriptorMismatch
	}
	if sd.DB == nil {
		return nil, ErrNotConnected
	}
	return sd.DB, nil
}

// QuoteIdent quotes an identifier with double quotes, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedName quotes table, prefixed with schema when one is given.
func QualifiedName(schema, table string) string {
	if schema == "" {
		return QuoteIdent(table)
	}
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}

// QueryStrings runs a query returning a single text column.
func (b *BaseSQLDriver) QueryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// PragmaTableInfo builds a TableStructure from PRAGMA table_info, which both
// SQLite and DuckDB implement. Primary key columns are reported as indexes.
func (b *BaseSQLDriver) PragmaTableInfo(ctx context.Context, db *sql.DB, schema, table string) (*core.TableStructure, error) {
	//nolint:gosec // identifier is quoted
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", QualifiedName(schema, table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	s := &core.TableStructure{
		StructureColumns: []string{"name", "type", "not null", "primary key", "default value"},
		StructureValues:  [][]any{},
		IndexesColumns:   []string{"name", "type"},
		IndexesValues:    [][]any{},
	}
	for rows.Next() {
		var (
			cid          int64
			name, typ    string
			notNull, pk  any
			defaultValue any
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		isPK := truthy(pk)
		s.StructureValues = append(s.StructureValues, []any{name, typ, truthy(notNull), isPK, NormalizeValue(defaultValue)})
		if isPK {
			s.IndexesValues = append(s.IndexesValues, []any{name, typ})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(s.StructureValues) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return s, nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case int32:
		return val != 0
	case int:
		return val != 0
	case []byte:
		s := string(val)
		return s != "" && s != "0" && !strings.EqualFold(s, "false")
	case string:
		return val != "" && val != "0" && !strings.EqualFold(val, "false")
	}
	return false
}

// ColumnNames extracts the first structure column (the names).
func ColumnNames(s *core.TableStructure) []string {
	names := make([]string, len(s.StructureValues))
	for i, row := range s.StructureValues {
		names[i], _ = row[0].(string)
	}
	return names
}

// PageQuery describes a windowed SELECT.
type PageQuery struct {
	Schema  string
	Table   string
	Columns []string
	Order   string
	// DefaultOrder is an already quoted expression used when Order is empty.
	DefaultOrder string
	Reverse      bool
	Start        int
	Count        int
}

// SelectPage counts the table, then selects one window of it with the
// columns in the given order.
func (b *BaseSQLDriver) SelectPage(ctx context.Context, db *sql.DB, q PageQuery) (*core.TableDataPage, error) {
	if _, err := ColumnIndex(q.Columns, q.Order); err != nil {
		return nil, err
	}

	var total int64
	//nolint:gosec // identifier is quoted
	relation := QualifiedName(q.Schema, q.Table)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", relation)
	if err := db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	quoted := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		quoted[i] = QuoteIdent(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(quoted, ", "), relation)
	orderBy := q.DefaultOrder
	if q.Order != "" {
		orderBy = QuoteIdent(q.Order)
	}
	if orderBy != "" {
		dir := "ASC"
		if q.Reverse {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", orderBy, dir)
	}
	fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", max(q.Count, 0), max(q.Start, 0))

	if b.Logger != nil {
		b.Logger.Debug("selecting page", "table", q.Table, "sql", sb.String())
	}

	rows, err := db.QueryContext(ctx, sb.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	_, values, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}
	return &core.TableDataPage{
		Columns: q.Columns,
		Values:  values,
		Start:   q.Start,
		Count:   len(values),
		Total:   total,
	}, nil
}

// ScanRows reads every row as normalized values.
func ScanRows(rows *sql.Rows) ([]string, [][]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	values := [][]any{}
	for rows.Next() {
		row := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		values = append(values, NormalizeRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, values, nil
}

// Classify returns the statement kind of a raw query from its leading keyword.
func Classify(query string) core.ExecuteType {
	switch strings.ToUpper(firstKeyword(query)) {
	case "SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES", "SHOW", "DESCRIBE", "SUMMARIZE", "TABLE", "FROM":
		return core.ExecuteSelect
	case "INSERT", "REPLACE":
		return core.ExecuteInsert
	case "UPDATE", "DELETE":
		return core.ExecuteUpdateDelete
	default:
		return core.ExecuteRaw
	}
}

func firstKeyword(query string) string {
	s := query
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
				continue
			}
			return ""
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = s[i+2:]
				continue
			}
			return ""
		case strings.HasPrefix(s, "("):
			s = s[1:]
			continue
		}
		break
	}
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_')
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

// ExecuteSQL runs a raw statement. Engine errors are returned unwrapped so
// their text reaches the client verbatim.
func (b *BaseSQLDriver) ExecuteSQL(ctx context.Context, d core.Descriptor, query string) (*core.ExecuteResult, error) {
	db, err := Handle(d)
	if err != nil {
		return nil, err
	}

	kind := Classify(query)
	if b.Logger != nil {
		b.Logger.Debug("executing statement", "database", d.Name(), "type", kind)
	}

	if kind == core.ExecuteSelect {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		cols, values, err := ScanRows(rows)
		if err != nil {
			return nil, err
		}
		return &core.ExecuteResult{Type: kind, Columns: cols, Values: values}, nil
	}

	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	out := &core.ExecuteResult{Type: kind}
	switch kind {
	case core.ExecuteInsert:
		if id, err := res.LastInsertId(); err == nil {
			out.InsertedID = &id
		}
		if n, err := res.RowsAffected(); err == nil {
			out.AffectedCount = &n
		}
	case core.ExecuteUpdateDelete:
		if n, err := res.RowsAffected(); err == nil {
			out.AffectedCount = &n
		}
	}
	return out, nil
}
