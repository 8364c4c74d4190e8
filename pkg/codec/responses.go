package codec

import (
	"slices"

	"github.com/leapstack-labs/dbbridge/pkg/core"
)

// DatabaseEntry is one element of the databaseList response.
type DatabaseEntry struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Tables []string `json:"tables"`
}

// NewDatabaseEntry builds a list entry with the table names sorted.
// The input slice is not modified.
func NewDatabaseEntry(id int, name string, tables []string) DatabaseEntry {
	sorted := make([]string, len(tables))
	copy(sorted, tables)
	slices.Sort(sorted)
	return DatabaseEntry{ID: id, Name: name, Tables: sorted}
}

// TableStructureResponse is the getTableStructure payload.
type TableStructureResponse struct {
	StructureColumns []string `json:"structureColumns"`
	StructureValues  [][]Cell `json:"structureValues"`
	IndexesColumns   []string `json:"indexesColumns"`
	IndexesValues    [][]Cell `json:"indexesValues"`
}

// TableDataResponse is the getTableData payload.
type TableDataResponse struct {
	Columns []string `json:"columns"`
	Values  [][]Cell `json:"values"`
	Start   int      `json:"start"`
	Count   int      `json:"count"`
	Total   int64    `json:"total"`
}

// TableInfoResponse is the getTableInfo payload.
type TableInfoResponse struct {
	Definition string `json:"definition"`
}

// ExecuteResponse is the execute payload.
type ExecuteResponse struct {
	Type          core.ExecuteType `json:"type"`
	Columns       []string         `json:"columns"`
	Values        [][]Cell         `json:"values"`
	InsertedID    *int64           `json:"insertedId"`
	AffectedCount *int64           `json:"affectedCount"`
}

func columns(cols []string) []string {
	if cols == nil {
		return []string{}
	}
	return cols
}

// EncodeTableStructure tags every structure and index cell.
func EncodeTableStructure(s *core.TableStructure) (TableStructureResponse, error) {
	structure, err := EncodeRows(s.StructureValues)
	if err != nil {
		return TableStructureResponse{}, err
	}
	indexes, err := EncodeRows(s.IndexesValues)
	if err != nil {
		return TableStructureResponse{}, err
	}
	return TableStructureResponse{
		StructureColumns: columns(s.StructureColumns),
		StructureValues:  structure,
		IndexesColumns:   columns(s.IndexesColumns),
		IndexesValues:    indexes,
	}, nil
}

// EncodeTableData tags every row of a page.
func EncodeTableData(p *core.TableDataPage) (TableDataResponse, error) {
	values, err := EncodeRows(p.Values)
	if err != nil {
		return TableDataResponse{}, err
	}
	return TableDataResponse{
		Columns: columns(p.Columns),
		Values:  values,
		Start:   p.Start,
		Count:   p.Count,
		Total:   p.Total,
	}, nil
}

// EncodeTableInfo wraps a definition.
func EncodeTableInfo(i *core.TableInfo) TableInfoResponse {
	return TableInfoResponse{Definition: i.Definition}
}

// EncodeExecuteResult tags the rows of a raw statement result.
func EncodeExecuteResult(r *core.ExecuteResult) (ExecuteResponse, error) {
	values, err := EncodeRows(r.Values)
	if err != nil {
		return ExecuteResponse{}, err
	}
	return ExecuteResponse{
		Type:          r.Type,
		Columns:       columns(r.Columns),
		Values:        values,
		InsertedID:    r.InsertedID,
		AffectedCount: r.AffectedCount,
	}, nil
}
