package ksjutil

import (
	"math"
	"sort"
	"strconv"
)

// Table is the in-memory shape ksjutil reads geospatial attribute tables
// in: an ordered list of named columns over rows of cell maps. Column
// order is significant and preserved by every operation.
type Table struct {
	// Source is optional caller-supplied provenance, typically the file
	// name of the KSJ distribution the table was read from (e.g.
	// "N03-20240101.shp"). Cleanup uses it to resolve the release year
	// when no explicit year is given.
	Source string

	columns []string
	rows    []map[string]any
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{columns: append([]string(nil), columns...)}
}

// FromRecords builds a table from row maps. Column order is the sorted
// union of keys seen across all records; KSJ column names sort into their
// natural numeric order.
func FromRecords(records []map[string]any) *Table {
	seen := make(map[string]struct{})
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	t := NewTable(cols...)
	for _, rec := range records {
		t.AppendRow(rec)
	}
	return t
}

// AppendRow adds a row to the table. The cell map is copied.
func (t *Table) AppendRow(cells map[string]any) {
	row := make(map[string]any, len(cells))
	for k, v := range cells {
		row[k] = v
	}
	t.rows = append(t.rows, row)
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Cell returns the value at (row, column), or nil when the cell is unset.
func (t *Table) Cell(row int, column string) any { return t.rows[row][column] }

// Row returns a copy of the row's cell map.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.rows[i]))
	for k, v := range t.rows[i] {
		row[k] = v
	}
	return row
}

// Clone returns a deep copy sharing no row storage with the original.
func (t *Table) Clone() *Table {
	c := &Table{
		Source:  t.Source,
		columns: append([]string(nil), t.columns...),
		rows:    make([]map[string]any, len(t.rows)),
	}
	for i, row := range t.rows {
		r := make(map[string]any, len(row))
		for k, v := range row {
			r[k] = v
		}
		c.rows[i] = r
	}
	return c
}

// Rename changes a column's name, keeping its position and its cells.
// Renaming a column that does not exist is a no-op.
func (t *Table) Rename(old, new string) {
	if old == new {
		return
	}
	for i, name := range t.columns {
		if name != old {
			continue
		}
		t.columns[i] = new
		for _, row := range t.rows {
			if v, ok := row[old]; ok {
				row[new] = v
				delete(row, old)
			}
		}
		return
	}
}

func (t *Table) setCell(row int, column string, v any) {
	t.rows[row][column] = v
}

// codeString canonicalises a cell value for code-table lookup. Code
// tables key codes as strings, but JSON decoders hand over numeric codes
// as float64 and shapefile attribute readers as ints; integral numbers
// map to their plain decimal form so 3 and 3.0 both match code "3".
func codeString(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, c != ""
	case int:
		return strconv.Itoa(c), true
	case int32:
		return strconv.FormatInt(int64(c), 10), true
	case int64:
		return strconv.FormatInt(c, 10), true
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return "", false
		}
		return strconv.FormatFloat(c, 'f', -1, 64), true
	case float32:
		return codeString(float64(c))
	default:
		return "", false
	}
}
