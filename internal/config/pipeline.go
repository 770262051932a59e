package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PipelineConfig describes the inputs and outputs of every pipeline stage.
// It is loaded from a YAML file; any field left empty falls back to the
// default layout under DataDir/ResultsDir.
type PipelineConfig struct {
	// VPNPCAPDir holds PCAPs captured over a VPN (labeled "VPN")
	VPNPCAPDir string `yaml:"vpn_pcap_dir"`
	// NonVPNPCAPDir holds plain-traffic PCAPs (labeled "Non-VPN")
	NonVPNPCAPDir string `yaml:"non_vpn_pcap_dir"`

	// CombinedFlows is the raw flow table produced by the converter
	CombinedFlows string `yaml:"combined_flows"`
	// ProcessedFlows is the cleaned flow table consumed by every analyzer
	ProcessedFlows string `yaml:"processed_flows"`

	// FlowReport is the overall flow statistics report
	FlowReport string `yaml:"flow_report"`
	// ReputationReport is the IP reputation summary
	ReputationReport string `yaml:"reputation_report"`
	// TemporalDir receives the temporal summary and plots
	TemporalDir string `yaml:"temporal_dir"`
	// SizeDir receives the size summary and plots
	SizeDir string `yaml:"size_dir"`
	// TLSDir receives the TLS fingerprint summary
	TLSDir string `yaml:"tls_dir"`

	// MLReady is the final feature table
	MLReady string `yaml:"ml_ready"`

	// Plots disables plot rendering when false (summaries are still written)
	Plots bool `yaml:"plots"`
}

// DefaultPipelineConfig mirrors the directory layout the standalone stages use.
func DefaultPipelineConfig(paths *PathConfig) *PipelineConfig {
	if paths == nil {
		paths = DefaultPathConfig()
	}
	data := paths.DataDir
	results := paths.ResultsDir
	return &PipelineConfig{
		VPNPCAPDir:       filepath.Join(data, "VPN-PCAPS-01"),
		NonVPNPCAPDir:    filepath.Join(data, "NonVPN-PCAPs-01"),
		CombinedFlows:    filepath.Join(data, "combined_flows.csv"),
		ProcessedFlows:   filepath.Join(data, "processed_flows.csv"),
		FlowReport:       filepath.Join(results, "flow_analyzer", "summary.json"),
		ReputationReport: filepath.Join(results, "reputation_analysis", "report.json"),
		TemporalDir:      filepath.Join(results, "temporal_agent"),
		SizeDir:          filepath.Join(results, "size_agent"),
		TLSDir:           filepath.Join(results, "tls_analysis"),
		MLReady:          filepath.Join(results, "ml_ready", "flows_ml_ready.csv"),
		Plots:            true,
	}
}

// LoadPipelineConfig reads a YAML pipeline config, filling unset fields
// with defaults. An empty path returns the defaults unchanged.
func LoadPipelineConfig(path string, paths *PathConfig) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig(paths)
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing pipeline config %s: %w", path, err)
	}
	return cfg, nil
}

// TemporalSummary returns the temporal summary path inside TemporalDir.
func (c *PipelineConfig) TemporalSummary() string {
	return filepath.Join(c.TemporalDir, "temporal_summary.json")
}

// SizeSummary returns the size summary path inside SizeDir.
func (c *PipelineConfig) SizeSummary() string {
	return filepath.Join(c.SizeDir, "size_analysis.json")
}

// TLSSummary returns the TLS summary path inside TLSDir.
func (c *PipelineConfig) TLSSummary() string {
	return filepath.Join(c.TLSDir, "tls_summary.json")
}
