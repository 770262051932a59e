package dataset

import (
	"errors"
	"testing"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable([]string{"flow_id", "duration", "byte_count"})
	for _, row := range [][]string{
		{"f1", "1.5", "100"},
		{"f2", "2.5", "200"},
	} {
		if err := table.AppendRow(row); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return table
}

func TestTable_Shape(t *testing.T) {
	table := newTestTable(t)
	if table.NumRows() != 2 {
		t.Errorf("Expected 2 rows, got %d", table.NumRows())
	}
	if table.NumColumns() != 3 {
		t.Errorf("Expected 3 columns, got %d", table.NumColumns())
	}
}

func TestTable_AppendRowRejectsRagged(t *testing.T) {
	table := newTestTable(t)
	if err := table.AppendRow([]string{"f3", "1.0"}); err == nil {
		t.Error("Expected error appending a short row")
	}
}

func TestTable_ColumnParsesNumbers(t *testing.T) {
	table := newTestTable(t)
	values, err := table.Column("duration")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if values[0] != 1.5 || values[1] != 2.5 {
		t.Errorf("Expected [1.5 2.5], got %v", values)
	}
}

func TestTable_ColumnMissingIsSchemaError(t *testing.T) {
	table := newTestTable(t)
	_, err := table.Column("nope")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError, got %v", err)
	}
}

func TestTable_ColumnNonNumericIsError(t *testing.T) {
	table := newTestTable(t)
	if _, err := table.Column("flow_id"); err == nil {
		t.Error("Expected error parsing a text column as numeric")
	}
}

func TestTable_SetColumnReplacesInPlace(t *testing.T) {
	table := newTestTable(t)
	if err := table.SetColumn("duration", []float64{10, 20}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	if table.NumColumns() != 3 {
		t.Errorf("Expected column count unchanged, got %d", table.NumColumns())
	}
	values, _ := table.Column("duration")
	if values[0] != 10 || values[1] != 20 {
		t.Errorf("Expected [10 20], got %v", values)
	}
}

func TestTable_SetColumnAppendsNew(t *testing.T) {
	table := newTestTable(t)
	if err := table.SetColumn("score", []float64{0.25, 0.75}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	cols := table.Columns()
	if cols[len(cols)-1] != "score" {
		t.Errorf("Expected new column appended last, got %v", cols)
	}
}

func TestTable_Broadcast(t *testing.T) {
	table := newTestTable(t)
	table.Broadcast("mean_packet_size", 150)
	values, err := table.Column("mean_packet_size")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for i, v := range values {
		if v != 150 {
			t.Errorf("Expected broadcast value 150 at row %d, got %f", i, v)
		}
	}
}

func TestTable_RenameColumn(t *testing.T) {
	table := newTestTable(t)
	table.RenameColumn("duration", "flow_duration")
	if table.HasColumn("duration") {
		t.Error("Expected old name gone after rename")
	}
	if !table.HasColumn("flow_duration") {
		t.Error("Expected new name present after rename")
	}

	// Renaming onto an existing column must not clobber it.
	table.RenameColumn("flow_duration", "byte_count")
	if !table.HasColumn("flow_duration") {
		t.Error("Expected rename onto existing column to be a no-op")
	}
}

func TestFormatFloat_RoundTrips(t *testing.T) {
	table := NewTable([]string{"x"})
	if err := table.AppendRow([]string{"0"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := table.SetColumn("x", []float64{0.1}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	values, err := table.Column("x")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if values[0] != 0.1 {
		t.Errorf("Expected 0.1 to round-trip, got %v", values[0])
	}
}
