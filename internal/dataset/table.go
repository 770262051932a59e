// Package dataset holds the in-memory flow table and its flat-file I/O.
// A table preserves row order and every original column; numeric access
// parses cells on demand so passthrough columns survive untouched.
package dataset

import (
	"fmt"
	"strconv"
)

// Table is an ordered, rectangular table of string cells with named columns.
type Table struct {
	columns []string
	rows    [][]string
	index   map[string]int
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.columns {
		t.index[c] = i
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds a row. The cell count must match the column count.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), cells...))
	return nil
}

// Row returns the cells of row i.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Cell returns the raw cell at row i of the named column.
func (t *Table) Cell(i int, name string) (string, bool) {
	j, ok := t.index[name]
	if !ok {
		return "", false
	}
	return t.rows[i][j], true
}

// Strings returns the named column as raw strings.
func (t *Table) Strings(name string) ([]string, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, &SchemaError{Column: name, Stage: "read"}
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Column returns the named column parsed as float64.
// An absent column is a SchemaError; a non-numeric cell is a parse error
// identifying the offending row.
func (t *Table) Column(name string) ([]float64, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, &SchemaError{Column: name, Stage: "read"}
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		v, err := strconv.ParseFloat(row[j], 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %q is not numeric", name, i, row[j])
		}
		out[i] = v
	}
	return out, nil
}

// SetColumn replaces the named column with values, or appends a new column
// when the name is unknown. The value count must match the row count.
func (t *Table) SetColumn(name string, values []float64) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	j, ok := t.index[name]
	if !ok {
		j = len(t.columns)
		t.columns = append(t.columns, name)
		t.index[name] = j
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}
	for i, v := range values {
		t.rows[i][j] = formatFloat(v)
	}
	return nil
}

// SetStringColumn replaces or appends a string-valued column.
func (t *Table) SetStringColumn(name string, values []string) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	j, ok := t.index[name]
	if !ok {
		j = len(t.columns)
		t.columns = append(t.columns, name)
		t.index[name] = j
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}
	for i, v := range values {
		t.rows[i][j] = v
	}
	return nil
}

// Broadcast appends (or replaces) a column holding the same value on every row.
func (t *Table) Broadcast(name string, value float64) {
	values := make([]float64, len(t.rows))
	for i := range values {
		values[i] = value
	}
	// Length always matches, error is impossible here.
	_ = t.SetColumn(name, values)
}

// RenameColumn renames a column, keeping its position. Renaming to an
// existing name or from an unknown one is a no-op.
func (t *Table) RenameColumn(from, to string) {
	j, ok := t.index[from]
	if !ok {
		return
	}
	if _, exists := t.index[to]; exists {
		return
	}
	t.columns[j] = to
	delete(t.index, from)
	t.index[to] = j
}

// formatFloat renders a float the way the flow CSVs store numbers: shortest
// representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
