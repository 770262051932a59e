package features

import (
	"gonum.org/v1/gonum/floats"

	"github.com/cvalentine99/vpnflow/internal/dataset"
)

// Epsilon pads the min-max denominator so a constant column rescales to a
// uniform 0 instead of dividing by zero.
const Epsilon = 1e-9

// NormalizedColumns is the fixed set of numeric columns rescaled to [0,1].
// All of them exist after Merge on a well-formed flow table; a missing one
// means the upstream schema was violated.
var NormalizedColumns = []string{
	"duration",
	"packet_count",
	"byte_count",
	"avg_interarrival",
	"interarrival_var",
	"burst_score",
	"mean_packet_size",
	"std_packet_size",
	"tls_unique_fp",
	"tls_suspicious_ratio",
	"vpn_like_ip_ratio",
	"local_ip_ratio",
	"packet_size_entropy",
}

// Normalize rescales every column in NormalizedColumns to [0,1] using
// bounds observed in this batch: x' = (x - min) / (max - min + Epsilon).
// The returned bounds let a later run normalize against the same frame.
//
// Bounds are batch-relative: the same absolute flow value normalizes
// differently across runs. Use NormalizeWithBounds for cross-run
// comparability.
func Normalize(t *dataset.Table) (map[string]dataset.Bounds, error) {
	bounds := make(map[string]dataset.Bounds, len(NormalizedColumns))

	for _, name := range NormalizedColumns {
		if !t.HasColumn(name) {
			return nil, &dataset.SchemaError{Column: name, Stage: "normalize"}
		}
		values, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			bounds[name] = dataset.Bounds{}
			continue
		}

		b := dataset.Bounds{Min: floats.Min(values), Max: floats.Max(values)}
		scale := b.Max - b.Min + Epsilon
		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = (v - b.Min) / scale
		}
		if err := t.SetColumn(name, scaled); err != nil {
			return nil, err
		}
		bounds[name] = b
	}
	return bounds, nil
}

// NormalizeWithBounds rescales the fixed column set against previously
// persisted bounds instead of this batch's own. Values outside the recorded
// range are clamped to [0,1]. Columns without recorded bounds are a
// SchemaError: the manifest does not cover this table.
func NormalizeWithBounds(t *dataset.Table, bounds map[string]dataset.Bounds) error {
	for _, name := range NormalizedColumns {
		if !t.HasColumn(name) {
			return &dataset.SchemaError{Column: name, Stage: "normalize"}
		}
		b, ok := bounds[name]
		if !ok {
			return &dataset.SchemaError{Column: name, Stage: "normalize bounds manifest"}
		}
		values, err := t.Column(name)
		if err != nil {
			return err
		}

		scale := b.Max - b.Min + Epsilon
		scaled := make([]float64, len(values))
		for i, v := range values {
			x := (v - b.Min) / scale
			if x < 0 {
				x = 0
			} else if x > 1 {
				x = 1
			}
			scaled[i] = x
		}
		if err := t.SetColumn(name, scaled); err != nil {
			return err
		}
	}
	return nil
}
