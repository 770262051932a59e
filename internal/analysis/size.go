package analysis

import (
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/logging"
)

// SizeSummary is the packet-size analyzer's output document.
type SizeSummary struct {
	MeanPacketSize    float64 `json:"mean_packet_size"`
	StdPacketSize     float64 `json:"std_packet_size"`
	VPNLikeFlowsRatio float64 `json:"vpn_like_flows_ratio"`
	TotalFlows        int     `json:"total_flows"`
}

// VPN tunnels tend to emit packets padded toward the path MTU.
const (
	nearMTULow  = 1400.0
	nearMTUHigh = 1500.0
)

// AnalyzeSize computes per-flow average packet sizes and their distribution
// and writes size_analysis.json (plus plots when enabled) into outDir.
func AnalyzeSize(t *dataset.Table, outDir string, plots bool) (*SizeSummary, error) {
	log := logging.AnalysisLogger()

	bytes, err := t.Column("byte_count")
	if err != nil {
		return nil, err
	}
	packets, err := t.Column("packet_count")
	if err != nil {
		return nil, err
	}
	durations, err := t.Column("duration")
	if err != nil {
		return nil, err
	}

	avgSizes := make([]float64, len(bytes))
	nearMTU := 0
	for i := range bytes {
		avgSizes[i] = bytes[i] / (packets[i] + 1e-6)
		if avgSizes[i] >= nearMTULow && avgSizes[i] <= nearMTUHigh {
			nearMTU++
		}
	}

	s := &SizeSummary{
		MeanPacketSize: mean(avgSizes),
		TotalFlows:     len(avgSizes),
	}
	if len(avgSizes) > 1 {
		s.StdPacketSize = stat.StdDev(avgSizes, nil)
	}
	if len(avgSizes) > 0 {
		s.VPNLikeFlowsRatio = float64(nearMTU) / float64(len(avgSizes))
	}

	if plots {
		if err := saveHistogram(avgSizes,
			"Packet Size Distribution", "Average Packet Size (bytes)", "Number of Flows",
			filepath.Join(outDir, "hist_packet_sizes.png")); err != nil {
			return nil, err
		}
		if err := saveCorrHeatmapSeries(
			[]string{"avg_packet_size", "packet_count", "byte_count", "duration"},
			[][]float64{avgSizes, packets, bytes, durations},
			"Correlation Heatmap (Size Features)",
			filepath.Join(outDir, "heatmap_size_features.png")); err != nil {
			return nil, err
		}
		if err := saveScatter(durations, avgSizes,
			"Flow Duration vs Average Packet Size", "Duration (s)", "Avg Packet Size (bytes)",
			filepath.Join(outDir, "scatter_duration_size.png")); err != nil {
			return nil, err
		}
	}

	if err := writeJSON(s, filepath.Join(outDir, "size_analysis.json")); err != nil {
		return nil, err
	}
	log.Info("size analysis complete", "out_dir", outDir,
		"mean_packet_size", s.MeanPacketSize,
		"vpn_like_flows_ratio", s.VPNLikeFlowsRatio)
	return s, nil
}
