package features

import (
	"errors"
	"math"
	"testing"

	"github.com/cvalentine99/vpnflow/internal/dataset"
)

// mergedTable builds the scenario table and runs Merge so all 13
// normalized columns exist.
func mergedTable(t *testing.T) *dataset.Table {
	t.Helper()
	table := testFlowTable(t)
	if err := Merge(table, fullSummaries()); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return table
}

func TestNormalize_RangeAndBounds(t *testing.T) {
	table := mergedTable(t)

	bounds, err := Normalize(table)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	for _, name := range NormalizedColumns {
		values, err := table.Column(name)
		if err != nil {
			t.Fatalf("Column(%q): %v", name, err)
		}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("Column %q row %d is not finite: %f", name, i, v)
			}
			if v < 0 || v > 1 {
				t.Errorf("Column %q row %d out of [0,1]: %f", name, i, v)
			}
		}
		if _, ok := bounds[name]; !ok {
			t.Errorf("Expected bounds recorded for column %q", name)
		}
	}

	if b := bounds["duration"]; b.Min != 1 || b.Max != 3 {
		t.Errorf("Expected duration bounds [1,3], got [%f,%f]", b.Min, b.Max)
	}
}

func TestNormalize_LinearColumn(t *testing.T) {
	table := mergedTable(t)
	if _, err := Normalize(table); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	// duration [1,2,3] min-max normalizes to [0, 0.5, 1] up to epsilon.
	values, err := table.Column("duration")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	want := []float64{0, 0.5, 1}
	for i := range want {
		if math.Abs(values[i]-want[i]) > 1e-6 {
			t.Errorf("Expected duration[%d] = %f, got %f", i, want[i], values[i])
		}
	}
}

func TestNormalize_ConstantColumnIsUniformlyZero(t *testing.T) {
	table := mergedTable(t)
	if _, err := Normalize(table); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	// Broadcast columns are constant across rows, so the epsilon guard
	// must rescale them to exactly 0, never NaN.
	for _, name := range []string{"mean_packet_size", "tls_unique_fp", "packet_size_entropy"} {
		values, err := table.Column(name)
		if err != nil {
			t.Fatalf("Column(%q): %v", name, err)
		}
		for i, v := range values {
			if v != 0 {
				t.Errorf("Expected constant column %q row %d to normalize to 0, got %f", name, i, v)
			}
		}
	}
}

func TestNormalize_MissingColumnIsSchemaError(t *testing.T) {
	// A bare flow table without the merge step violates the normalizer's
	// schema assumptions.
	table := testFlowTable(t)

	_, err := Normalize(table)
	var schemaErr *dataset.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError, got %v", err)
	}
}

func TestNormalizeWithBounds_ClampsOutOfRange(t *testing.T) {
	table := mergedTable(t)

	bounds, err := Normalize(mergedTable(t))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// Narrow the duration frame so row 0 falls below and row 2 above it.
	bounds["duration"] = dataset.Bounds{Min: 1.5, Max: 2.5}

	if err := NormalizeWithBounds(table, bounds); err != nil {
		t.Fatalf("NormalizeWithBounds: %v", err)
	}
	values, err := table.Column("duration")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if values[0] != 0 {
		t.Errorf("Expected below-range value clamped to 0, got %f", values[0])
	}
	if math.Abs(values[1]-0.5) > 1e-6 {
		t.Errorf("Expected mid-range value 0.5, got %f", values[1])
	}
	if values[2] != 1 {
		t.Errorf("Expected above-range value clamped to 1, got %f", values[2])
	}
}

func TestNormalizeWithBounds_MissingBoundsIsSchemaError(t *testing.T) {
	table := mergedTable(t)

	err := NormalizeWithBounds(table, map[string]dataset.Bounds{})
	var schemaErr *dataset.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError for missing bounds, got %v", err)
	}
}
