// Package pipeline chains every stage of the VPN detection pipeline into a
// single in-process run: PCAP conversion, preprocessing, the four
// analyzers, and feature engineering.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cvalentine99/vpnflow/internal/analysis"
	"github.com/cvalentine99/vpnflow/internal/capture"
	"github.com/cvalentine99/vpnflow/internal/config"
	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/features"
	"github.com/cvalentine99/vpnflow/internal/logging"
)

// Options tune a pipeline run.
type Options struct {
	// SkipConvert starts from an existing combined flow table instead of
	// reprocessing the PCAP folders.
	SkipConvert bool
}

// StageResult records one completed stage.
type StageResult struct {
	Name     string        `json:"name"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration_ns"`
}

// RunReport is the manifest of a completed pipeline run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stages     []StageResult `json:"stages"`
	MLReady    string        `json:"ml_ready"`
	Checksum   string        `json:"ml_ready_blake3"`
}

// Run executes the full pipeline described by cfg. The first stage failure
// aborts the run; there is no partial-success mode. On success a run
// manifest lands next to the ML-ready table.
func Run(cfg *config.PipelineConfig, opts Options) (*RunReport, error) {
	log := logging.PipelineLogger()

	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		MLReady:   cfg.MLReady,
	}
	log.Info("pipeline run starting", "run_id", report.RunID)

	stage := func(name, output string, fn func() error) error {
		start := time.Now()
		log.Info("stage starting", "stage", name)
		if err := fn(); err != nil {
			log.Error("stage failed", "stage", name, logging.Err(err))
			return fmt.Errorf("stage %s: %w", name, err)
		}
		report.Stages = append(report.Stages, StageResult{
			Name:     name,
			Output:   output,
			Duration: time.Since(start),
		})
		log.Info("stage complete", "stage", name, logging.Duration("elapsed", time.Since(start)))
		return nil
	}

	if !opts.SkipConvert {
		err := stage("convert", cfg.CombinedFlows, func() error {
			_, err := capture.ConvertFolders(cfg.VPNPCAPDir, cfg.NonVPNPCAPDir, cfg.CombinedFlows)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var flows *dataset.Table
	err := stage("preprocess", cfg.ProcessedFlows, func() error {
		var err error
		flows, err = capture.Preprocess(cfg.CombinedFlows, cfg.ProcessedFlows)
		return err
	})
	if err != nil {
		return nil, err
	}

	analyzers := []struct {
		name   string
		output string
		fn     func() error
	}{
		{"flow-report", cfg.FlowReport, func() error {
			_, err := analysis.AnalyzeFlows(flows, cfg.FlowReport)
			return err
		}},
		{"reputation", cfg.ReputationReport, func() error {
			_, err := analysis.AnalyzeReputation(flows, cfg.ReputationReport)
			return err
		}},
		{"temporal", cfg.TemporalSummary(), func() error {
			_, err := analysis.AnalyzeTemporal(flows, cfg.TemporalDir, cfg.Plots)
			return err
		}},
		{"size", cfg.SizeSummary(), func() error {
			_, err := analysis.AnalyzeSize(flows, cfg.SizeDir, cfg.Plots)
			return err
		}},
		{"tls", cfg.TLSSummary(), func() error {
			_, err := analysis.AnalyzeTLS(flows, cfg.TLSDir)
			return err
		}},
	}
	for _, a := range analyzers {
		if err := stage(a.name, a.output, a.fn); err != nil {
			return nil, err
		}
	}

	err = stage("features", cfg.MLReady, func() error {
		manifest, err := features.Engineer(features.Inputs{
			Flows:      cfg.ProcessedFlows,
			Temporal:   cfg.TemporalSummary(),
			Size:       cfg.SizeSummary(),
			TLS:        cfg.TLSSummary(),
			Reputation: cfg.ReputationReport,
			Output:     cfg.MLReady,
		})
		if err != nil {
			return err
		}
		report.Checksum = manifest.Checksum
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()
	if err := writeReport(report, cfg.MLReady); err != nil {
		return nil, err
	}
	log.Info("pipeline run complete", "run_id", report.RunID,
		"ml_ready", cfg.MLReady,
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// writeReport stores the run manifest next to the ML-ready table.
func writeReport(r *RunReport, mlReadyPath string) error {
	path := filepath.Join(filepath.Dir(mlReadyPath), fmt.Sprintf("run_%s.json", r.RunID))
	raw, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return &dataset.WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return &dataset.WriteError{Path: path, Err: err}
	}
	return nil
}
