// vpnflow turns captured network traffic into an ML-ready, labeled feature
// table for VPN detection. Each subcommand runs one pipeline stage; run
// chains them all.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cvalentine99/vpnflow/internal/analysis"
	"github.com/cvalentine99/vpnflow/internal/capture"
	"github.com/cvalentine99/vpnflow/internal/config"
	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/features"
	"github.com/cvalentine99/vpnflow/internal/logging"
	"github.com/cvalentine99/vpnflow/internal/pipeline"
)

const usage = `usage: vpnflow <command> [flags]

commands:
  convert     extract labeled flows from PCAP folders
  preprocess  clean a raw flow table into the pipeline schema
  flows       write the overall flow statistics report
  reputation  classify unique IPs and write the reputation report
  temporal    analyze timing patterns
  size        analyze packet size distributions
  tls         fingerprint TLS flows
  features    build the ML-ready feature table
  run         execute the whole pipeline

run "vpnflow <command> -h" for command flags
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = cmdConvert(os.Args[2:])
	case "preprocess":
		err = cmdPreprocess(os.Args[2:])
	case "flows":
		err = cmdFlows(os.Args[2:])
	case "reputation":
		err = cmdReputation(os.Args[2:])
	case "temporal":
		err = cmdTemporal(os.Args[2:])
	case "size":
		err = cmdSize(os.Args[2:])
	case "tls":
		err = cmdTLS(os.Args[2:])
	case "features":
		err = cmdFeatures(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		logging.Error("run failed", logging.Err(err))
		os.Exit(1)
	}
}

// newFlagSet wires the shared verbosity flag into a subcommand flag set.
func newFlagSet(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	verbose := fs.Bool("v", false, "enable debug logging")
	return fs, verbose
}

func initLogging(verbose bool) {
	cfg := logging.DefaultConfig()
	if verbose {
		cfg.Level = logging.LevelDebug
	}
	logging.Init(cfg)
}

// requireFlags exits with a usage error when a required flag is empty.
func requireFlags(fs *flag.FlagSet, pairs ...string) error {
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fs.Usage()
			return fmt.Errorf("missing required flag -%s", pairs[i])
		}
	}
	return nil
}

func cmdConvert(args []string) error {
	fs, verbose := newFlagSet("convert")
	vpnDir := fs.String("vpn", "", "folder of VPN-labeled PCAPs")
	nonVPNDir := fs.String("nonvpn", "", "folder of non-VPN PCAPs")
	out := fs.String("out", "", "output flow CSV")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs, "vpn", *vpnDir, "nonvpn", *nonVPNDir, "out", *out); err != nil {
		return err
	}

	_, err := capture.ConvertFolders(*vpnDir, *nonVPNDir, *out)
	return err
}

func cmdPreprocess(args []string) error {
	fs, verbose := newFlagSet("preprocess")
	input := fs.String("input", "", "raw flow CSV")
	output := fs.String("output", "", "cleaned flow CSV")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs, "input", *input, "output", *output); err != nil {
		return err
	}

	_, err := capture.Preprocess(*input, *output)
	return err
}

func cmdFlows(args []string) error {
	fs, verbose := newFlagSet("flows")
	csvPath := fs.String("csv", "", "flow CSV input")
	outJSON := fs.String("out-json", "", "output JSON report path")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs, "csv", *csvPath, "out-json", *outJSON); err != nil {
		return err
	}

	t, err := dataset.Load(*csvPath)
	if err != nil {
		return err
	}
	_, err = analysis.AnalyzeFlows(t, *outJSON)
	return err
}

func cmdReputation(args []string) error {
	fs, verbose := newFlagSet("reputation")
	csvPath := fs.String("csv", "", "flow CSV input")
	outJSON := fs.String("out-json", "", "output JSON report path")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs, "csv", *csvPath, "out-json", *outJSON); err != nil {
		return err
	}

	t, err := dataset.Load(*csvPath)
	if err != nil {
		return err
	}
	_, err = analysis.AnalyzeReputation(t, *outJSON)
	return err
}

func cmdTemporal(args []string) error {
	fs, verbose := newFlagSet("temporal")
	csvPath := fs.String("csv", "", "flow CSV input")
	outDir := fs.String("out-dir", "", "output directory for results")
	plots := fs.Bool("plots", true, "render plots alongside the summary")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs, "csv", *csvPath, "out-dir", *outDir); err != nil {
		return err
	}

	t, err := dataset.Load(*csvPath)
	if err != nil {
		return err
	}
	_, err = analysis.AnalyzeTemporal(t, *outDir, *plots)
	return err
}

func cmdSize(args []string) error {
	fs, verbose := newFlagSet("size")
	csvPath := fs.String("csv", "", "flow CSV input")
	outDir := fs.String("out-dir", "", "output directory for results")
	plots := fs.Bool("plots", true, "render plots alongside the summary")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs, "csv", *csvPath, "out-dir", *outDir); err != nil {
		return err
	}

	t, err := dataset.Load(*csvPath)
	if err != nil {
		return err
	}
	_, err = analysis.AnalyzeSize(t, *outDir, *plots)
	return err
}

func cmdTLS(args []string) error {
	fs, verbose := newFlagSet("tls")
	csvPath := fs.String("csv", "", "flow CSV input")
	outDir := fs.String("out-dir", "", "output directory for the TLS summary")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs, "csv", *csvPath, "out-dir", *outDir); err != nil {
		return err
	}

	t, err := dataset.Load(*csvPath)
	if err != nil {
		return err
	}
	_, err = analysis.AnalyzeTLS(t, *outDir)
	return err
}

func cmdFeatures(args []string) error {
	fs, verbose := newFlagSet("features")
	flows := fs.String("flows", "", "input flows CSV")
	temporal := fs.String("temporal", "", "temporal summary JSON")
	size := fs.String("size", "", "size summary JSON")
	tlsPath := fs.String("tls", "", "TLS summary JSON")
	reputation := fs.String("reputation", "", "IP reputation JSON")
	out := fs.String("out", "", "output ML-ready CSV")
	bounds := fs.String("bounds", "", "prior output manifest to normalize against (optional)")
	fs.Parse(args)
	initLogging(*verbose)
	if err := requireFlags(fs,
		"flows", *flows, "temporal", *temporal, "size", *size,
		"tls", *tlsPath, "reputation", *reputation, "out", *out); err != nil {
		return err
	}

	_, err := features.Engineer(features.Inputs{
		Flows:          *flows,
		Temporal:       *temporal,
		Size:           *size,
		TLS:            *tlsPath,
		Reputation:     *reputation,
		Output:         *out,
		BoundsManifest: *bounds,
	})
	return err
}

func cmdRun(args []string) error {
	fs, verbose := newFlagSet("run")
	cfgPath := fs.String("config", "", "pipeline YAML config (optional, defaults to data/ and results/)")
	skipConvert := fs.Bool("skip-convert", false, "start from an existing combined flow table")
	fs.Parse(args)
	initLogging(*verbose)

	cfg, err := config.LoadPipelineConfig(*cfgPath, config.DefaultPathConfig())
	if err != nil {
		return err
	}
	_, err = pipeline.Run(cfg, pipeline.Options{SkipConvert: *skipConvert})
	return err
}
