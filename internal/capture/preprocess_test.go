package capture

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cvalentine99/vpnflow/internal/dataset"
)

func writeRawFlows(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(in, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return in, filepath.Join(dir, "processed.csv")
}

func TestPreprocess_RenamesExternalColumns(t *testing.T) {
	in, out := writeRawFlows(t,
		"source_ip,destination_ip,source_port,destination_port,protocol_type,flow_duration,packet_count\n"+
			"10.0.0.1,10.0.0.2,1234,443,tcp,2,20\n")

	table, err := Preprocess(in, out)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	for _, want := range []string{"src_ip", "dst_ip", "src_port", "dst_port", "protocol", "duration"} {
		if !table.HasColumn(want) {
			t.Errorf("Expected renamed column %q, got %v", want, table.Columns())
		}
	}
	for _, old := range []string{"source_ip", "destination_ip", "flow_duration"} {
		if table.HasColumn(old) {
			t.Errorf("Expected original column %q gone after rename", old)
		}
	}
}

func TestPreprocess_SynthesizesFlowIDs(t *testing.T) {
	in, out := writeRawFlows(t,
		"src_ip,dst_ip,src_port,dst_port,protocol,duration,packet_count\n"+
			"10.0.0.1,10.0.0.2,1234,443,tcp,2,20\n")

	table, err := Preprocess(in, out)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	id, ok := table.Cell(0, "flow_id")
	if !ok {
		t.Fatal("Expected a flow_id column")
	}
	if id != "10.0.0.1-10.0.0.2-1234-443-tcp" {
		t.Errorf("Expected 5-tuple flow id, got %q", id)
	}
}

func TestPreprocess_KeepsProvidedFlowID(t *testing.T) {
	in, out := writeRawFlows(t,
		"flow_id,duration,packet_count\nmyflow,2,20\n")

	table, err := Preprocess(in, out)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if id, _ := table.Cell(0, "flow_id"); id != "myflow" {
		t.Errorf("Expected provided flow id kept, got %q", id)
	}
}

func TestPreprocess_RequiresFlowIdentity(t *testing.T) {
	in, out := writeRawFlows(t, "duration,packet_count\n2,20\n")

	if _, err := Preprocess(in, out); err == nil {
		t.Error("Expected error without flow_id or address columns")
	}
}

func TestPreprocess_DerivesMeanInterarrival(t *testing.T) {
	in, out := writeRawFlows(t,
		"flow_id,duration,packet_count\nf1,2,20\nf2,0,0\n")

	table, err := Preprocess(in, out)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	inter, err := table.Column("mean_interarrival")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if math.Abs(inter[0]-0.1) > 1e-6 {
		t.Errorf("Expected mean_interarrival ~0.1, got %f", inter[0])
	}
	if math.IsNaN(inter[1]) || math.IsInf(inter[1], 0) {
		t.Errorf("Expected empty flow to stay finite, got %f", inter[1])
	}
}

func TestPreprocess_KeepsProvidedMeanInterarrival(t *testing.T) {
	in, out := writeRawFlows(t,
		"flow_id,duration,packet_count,mean_interarrival\nf1,2,20,0.5\n")

	table, err := Preprocess(in, out)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	inter, err := table.Column("mean_interarrival")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if inter[0] != 0.5 {
		t.Errorf("Expected provided value 0.5 kept, got %f", inter[0])
	}
}

func TestPreprocess_WritesCleanedTable(t *testing.T) {
	in, out := writeRawFlows(t,
		"flow_id,duration,packet_count\nf1,2,20\n")

	if _, err := Preprocess(in, out); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	written, err := dataset.Load(out)
	if err != nil {
		t.Fatalf("loading written table: %v", err)
	}
	if !written.HasColumn("mean_interarrival") {
		t.Errorf("Expected written table to carry derived columns, got %v", written.Columns())
	}
}

func TestPreprocess_MissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "processed.csv")
	if _, err := Preprocess(filepath.Join(t.TempDir(), "absent.csv"), out); err == nil {
		t.Error("Expected error for missing input")
	}
}
