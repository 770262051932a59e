package features

import (
	"math"

	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/summary"
)

// Summaries carries the four analyzer outputs consumed by the merger.
type Summaries struct {
	Temporal   summary.Summary
	Size       summary.Summary
	TLS        summary.Summary
	Reputation summary.Summary
}

// Merge broadcasts the dataset-wide summary values onto every row of the
// flow table and derives the ratio and entropy columns. Rows are neither
// added nor removed and row order is preserved; the table gains exactly the
// columns listed in DerivedColumns.
func Merge(t *dataset.Table, s Summaries) error {
	if !t.HasColumn("byte_count") {
		return &dataset.SchemaError{Column: "byte_count", Stage: "merge"}
	}
	byteCounts, err := t.Column("byte_count")
	if err != nil {
		return err
	}

	// packet_size_entropy is computed from each row's single byte_count
	// value. The entropy of a one-element sample is identically zero, so
	// this column is a structural constant until a per-flow packet-size
	// series is available upstream. Kept as-is on purpose; do not swap in
	// a distributional entropy here without a schema change.
	entropies := make([]float64, len(byteCounts))
	for i, bc := range byteCounts {
		entropies[i] = Entropy([]float64{bc})
	}
	if err := t.SetColumn("packet_size_entropy", entropies); err != nil {
		return err
	}

	t.Broadcast("avg_interarrival", s.Temporal.Float("avg_mean_interarrival"))
	t.Broadcast("interarrival_var", s.Temporal.Float("avg_variance_interarrival"))
	t.Broadcast("burst_score", s.Temporal.Float("avg_burst_score"))

	t.Broadcast("mean_packet_size", s.Size.Float("mean_packet_size"))
	t.Broadcast("std_packet_size", s.Size.Float("std_packet_size"))

	t.Broadcast("tls_unique_fp", s.TLS.Float("unique_fingerprints"))
	t.Broadcast("tls_suspicious_ratio", s.TLS.Float("suspicious_fingerprint_ratio"))

	totalIPs := math.Max(s.Reputation.Float("total_unique_ips"), 1)
	t.Broadcast("vpn_like_ip_ratio", s.Reputation.Float("vpn_like_ips")/totalIPs)
	t.Broadcast("local_ip_ratio", s.Reputation.Float("local_ips")/totalIPs)

	return nil
}

// DerivedColumns lists every column Merge appends, in append order.
var DerivedColumns = []string{
	"packet_size_entropy",
	"avg_interarrival",
	"interarrival_var",
	"burst_score",
	"mean_packet_size",
	"std_packet_size",
	"tls_unique_fp",
	"tls_suspicious_ratio",
	"vpn_like_ip_ratio",
	"local_ip_ratio",
}
