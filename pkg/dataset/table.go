package dataset

import "fmt"

// Table is a rectangular dataset of named string columns.
// Rows are observations; every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable validates that every row matches the header width.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// NumRows returns the observation count.
func (t *Table) NumRows() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, bool) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[j]
	}
	return out, true
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(r))
		copy(rows[i], r)
	}
	return &Table{Columns: cols, Rows: rows}
}

// DropColumns returns a table without the named columns.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []int
	var cols []string
	for j, c := range t.Columns {
		if !drop[c] {
			keep = append(keep, j)
			cols = append(cols, c)
		}
	}
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(keep))
		for k, j := range keep {
			row[k] = r[j]
		}
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}
}

// Select returns a table holding only the rows at the given indices.
func (t *Table) Select(indices []int) *Table {
	rows := make([][]string, len(indices))
	for k, i := range indices {
		row := make([]string, len(t.Rows[i]))
		copy(row, t.Rows[i])
		rows[k] = row
	}
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Columns: cols, Rows: rows}
}

// IsMissing reports whether a cell value counts as missing.
func IsMissing(v string) bool {
	return v == "" || v == "NA" || v == "NaN"
}
