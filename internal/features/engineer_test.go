package features

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cvalentine99/vpnflow/internal/dataset"
)

// writeFixture drops a file into dir and returns its path.
func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

// scenarioInputs lays out the end-to-end fixture set in a temp dir.
func scenarioInputs(t *testing.T) Inputs {
	t.Helper()
	dir := t.TempDir()
	return Inputs{
		Flows: writeFixture(t, dir, "flows.csv",
			"duration,packet_count,byte_count\n1,10,100\n2,20,200\n3,30,300\n"),
		Temporal: writeFixture(t, dir, "temporal.json",
			`{"avg_mean_interarrival":0.5,"avg_variance_interarrival":0.1,"avg_burst_score":2.0}`),
		Size: writeFixture(t, dir, "size.json",
			`{"mean_packet_size":150,"std_packet_size":50}`),
		TLS: writeFixture(t, dir, "tls.json",
			`{"unique_fingerprints":3,"suspicious_fingerprint_ratio":0.2}`),
		Reputation: writeFixture(t, dir, "reputation.json",
			`{"vpn_like_ips":1,"local_ips":1,"total_unique_ips":2}`),
		Output: filepath.Join(dir, "out", "flows_ml_ready.csv"),
	}
}

func TestEngineer_EndToEnd(t *testing.T) {
	in := scenarioInputs(t)

	manifest, err := Engineer(in)
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}

	out, err := dataset.Load(in.Output)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}

	if out.NumRows() != 3 {
		t.Errorf("Expected 3 output rows, got %d", out.NumRows())
	}
	if out.NumColumns() != 3+len(DerivedColumns) {
		t.Errorf("Expected %d output columns, got %d", 3+len(DerivedColumns), out.NumColumns())
	}
	for _, name := range DerivedColumns {
		if !out.HasColumn(name) {
			t.Errorf("Expected output column %q", name)
		}
	}

	// duration [1,2,3] -> [0, 0.5, 1] after min-max scaling.
	durations, err := out.Column("duration")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for i, want := range []float64{0, 0.5, 1} {
		if math.Abs(durations[i]-want) > 1e-6 {
			t.Errorf("Expected normalized duration[%d] = %f, got %f", i, want, durations[i])
		}
	}

	// The ratio columns are 0.5 pre-normalization and constant, so they
	// land at uniform 0 in the output.
	for _, name := range []string{"vpn_like_ip_ratio", "local_ip_ratio"} {
		values, err := out.Column(name)
		if err != nil {
			t.Fatalf("Column(%q): %v", name, err)
		}
		for i, v := range values {
			if v != 0 {
				t.Errorf("Expected constant %q row %d normalized to 0, got %f", name, i, v)
			}
		}
	}

	if manifest.Rows != 3 {
		t.Errorf("Expected manifest rows 3, got %d", manifest.Rows)
	}
	if b := manifest.Bounds["vpn_like_ip_ratio"]; b.Min != 0.5 || b.Max != 0.5 {
		t.Errorf("Expected vpn_like_ip_ratio bounds [0.5,0.5], got [%f,%f]", b.Min, b.Max)
	}
	if manifest.Checksum == "" {
		t.Error("Expected a checksum in the output manifest")
	}
	if _, err := os.Stat(in.Output + ".manifest.json"); err != nil {
		t.Errorf("Expected companion manifest file: %v", err)
	}
}

func TestEngineer_ColumnSuperset(t *testing.T) {
	in := scenarioInputs(t)
	if _, err := Engineer(in); err != nil {
		t.Fatalf("Engineer: %v", err)
	}

	out, err := dataset.Load(in.Output)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}

	// Output columns == input columns followed by the derived columns.
	want := append([]string{"duration", "packet_count", "byte_count"}, DerivedColumns...)
	got := out.Columns()
	if len(got) != len(want) {
		t.Fatalf("Expected %d columns, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected column %d to be %q, got %q", i, want[i], got[i])
		}
	}
}

func TestEngineer_FixedBoundsMode(t *testing.T) {
	first := scenarioInputs(t)
	if _, err := Engineer(first); err != nil {
		t.Fatalf("Engineer (first run): %v", err)
	}

	second := scenarioInputs(t)
	second.BoundsManifest = first.Output + ".manifest.json"
	if _, err := Engineer(second); err != nil {
		t.Fatalf("Engineer (fixed-bounds run): %v", err)
	}

	out, err := dataset.Load(second.Output)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	durations, err := out.Column("duration")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	// Same data, same bounds: identical normalization to the batch run.
	for i, want := range []float64{0, 0.5, 1} {
		if math.Abs(durations[i]-want) > 1e-6 {
			t.Errorf("Expected fixed-bounds duration[%d] = %f, got %f", i, want, durations[i])
		}
	}
}

func TestEngineer_MissingFlowTable(t *testing.T) {
	in := scenarioInputs(t)
	in.Flows = filepath.Join(t.TempDir(), "does-not-exist.csv")

	_, err := Engineer(in)
	var missing *dataset.MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingInputError, got %v", err)
	}
	if _, statErr := os.Stat(in.Output); !os.IsNotExist(statErr) {
		t.Error("Expected no output file after a failed run")
	}
}

func TestEngineer_MissingSummary(t *testing.T) {
	in := scenarioInputs(t)
	in.TLS = filepath.Join(t.TempDir(), "missing.json")

	_, err := Engineer(in)
	var missing *dataset.MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingInputError, got %v", err)
	}
}

func TestEngineer_MalformedSummary(t *testing.T) {
	in := scenarioInputs(t)
	dir := t.TempDir()
	in.Size = writeFixture(t, dir, "size.json", `["not","an","object"]`)

	_, err := Engineer(in)
	var malformed *dataset.MalformedSummaryError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedSummaryError, got %v", err)
	}
}

func TestEngineer_MissingByteCountWritesNothing(t *testing.T) {
	in := scenarioInputs(t)
	dir := filepath.Dir(in.Flows)
	in.Flows = writeFixture(t, dir, "noflows.csv",
		"duration,packet_count\n1,10\n")

	_, err := Engineer(in)
	var schemaErr *dataset.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError, got %v", err)
	}
	if _, statErr := os.Stat(in.Output); !os.IsNotExist(statErr) {
		t.Error("Expected no output file after a schema failure")
	}
}
