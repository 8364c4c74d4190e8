package core

// Descriptor identifies one logical database exposed by a driver.
// Concrete drivers embed their own handle (connection, client, object source)
// in the type implementing this interface; only the producing driver may
// look inside it.
type Descriptor interface {
	Name() string
}

// TableStructure describes the columns and indexes of one table or collection.
// The first two structure columns are always name and type; the remainder is
// driver defined.
type TableStructure struct {
	StructureColumns []string
	StructureValues  [][]any
	IndexesColumns   []string
	IndexesValues    [][]any
}

// TableDataPage is a window over a table's rows.
type TableDataPage struct {
	Columns []string
	Values  [][]any
	Start   int
	// Count is the number of rows actually returned.
	Count int
	// Total is the row count of the whole table at query time.
	Total int64
}

// TableInfo holds an engine specific schema definition (DDL or JSON).
type TableInfo struct {
	Definition string
}

// ExecuteType classifies a raw statement.
type ExecuteType string

// Statement classifications reported by ExecuteResult.
const (
	ExecuteSelect       ExecuteType = "select"
	ExecuteInsert       ExecuteType = "insert"
	ExecuteUpdateDelete ExecuteType = "update_delete"
	ExecuteRaw          ExecuteType = "raw"
)

// ExecuteResult is the outcome of a raw statement.
type ExecuteResult struct {
	Type          ExecuteType
	Columns       []string
	Values        [][]any
	InsertedID    *int64
	AffectedCount *int64
}
