package capture

import (
	"fmt"
	"strings"

	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/logging"
)

// renameMap maps the column names of externally sourced flow datasets onto
// the pipeline schema.
var renameMap = map[string]string{
	"source_ip":        "src_ip",
	"destination_ip":   "dst_ip",
	"source_port":      "src_port",
	"destination_port": "dst_port",
	"protocol_type":    "protocol",
	"flow_duration":    "duration",
}

// Preprocess cleans a raw flow table into the schema every analyzer
// expects: canonical column names, a flow_id per row, and a
// mean_interarrival estimate when the source did not provide one. The
// cleaned table is written to outCSV and returned.
func Preprocess(inCSV, outCSV string) (*dataset.Table, error) {
	log := logging.CaptureLogger()

	t, err := dataset.Load(inCSV)
	if err != nil {
		return nil, err
	}
	log.Info("loaded raw flow table", logging.Dataset(inCSV, t.NumRows(), t.NumColumns()))

	for from, to := range renameMap {
		t.RenameColumn(from, to)
	}

	if t.HasColumn("src_ip") && t.HasColumn("dst_ip") {
		if err := synthesizeFlowIDs(t); err != nil {
			return nil, err
		}
	} else if !t.HasColumn("flow_id") {
		return nil, fmt.Errorf("dataset missing both flow_id and src_ip/dst_ip columns")
	}

	if !t.HasColumn("mean_interarrival") {
		if err := deriveMeanInterarrival(t); err != nil {
			return nil, err
		}
	}

	if err := dataset.Write(t, outCSV); err != nil {
		return nil, err
	}
	log.Info("preprocessed flows written", logging.Dataset(outCSV, t.NumRows(), t.NumColumns()))
	return t, nil
}

// synthesizeFlowIDs builds flow_id from the 5-tuple columns. Missing port
// or protocol columns contribute empty segments rather than failing, since
// some source datasets carry only addresses.
func synthesizeFlowIDs(t *dataset.Table) error {
	ids := make([]string, t.NumRows())
	for i := range ids {
		parts := make([]string, 0, 5)
		for _, col := range []string{"src_ip", "dst_ip", "src_port", "dst_port", "protocol"} {
			v, _ := t.Cell(i, col)
			parts = append(parts, v)
		}
		ids[i] = strings.Join(parts, "-")
	}
	return t.SetStringColumn("flow_id", ids)
}

// deriveMeanInterarrival estimates the mean inter-arrival time as
// duration / packet_count, padded so empty flows stay finite.
func deriveMeanInterarrival(t *dataset.Table) error {
	durations, err := t.Column("duration")
	if err != nil {
		return err
	}
	packets, err := t.Column("packet_count")
	if err != nil {
		return err
	}

	inter := make([]float64, len(durations))
	for i := range durations {
		inter[i] = durations[i] / (packets[i] + 1e-6)
	}
	return t.SetColumn("mean_interarrival", inter)
}
