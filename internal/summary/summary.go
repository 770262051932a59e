// Package summary loads the flat JSON documents produced by the upstream
// analyzers (temporal, size, TLS, reputation) for the feature merger.
package summary

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/cvalentine99/vpnflow/internal/dataset"
)

// Summary is one analyzer's dataset-wide output: named scalars. Values may
// be numbers, strings, or null; nested values (the reputation analyzer's
// detailed_results) are carried but never consumed by the merger.
type Summary map[string]any

// Defaults maps every summary key the merger consumes to the value
// substituted when the key is absent or null. Declared once so the full set
// of recognized keys is visible and testable in isolation.
var Defaults = map[string]float64{
	// temporal
	"avg_mean_interarrival":     0,
	"avg_variance_interarrival": 0,
	"avg_burst_score":           0,

	// size
	"mean_packet_size": 0,
	"std_packet_size":  0,

	// tls
	"unique_fingerprints":          0,
	"suspicious_fingerprint_ratio": 0,

	// reputation; total_unique_ips defaults to 1 so ratio denominators
	// never hit zero
	"vpn_like_ips":     0,
	"local_ips":        0,
	"total_unique_ips": 1,
}

// Load reads a summary document. A missing or unreadable file is a
// MissingInputError; content that is not a JSON object is a
// MalformedSummaryError. Missing keys are not an error here; default
// substitution happens at access time.
func Load(path string) (Summary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &dataset.MissingInputError{Path: path, Err: err}
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &dataset.MalformedSummaryError{Path: path, Err: err}
	}
	return Summary(m), nil
}

// Float returns the numeric value for key, falling back to the declared
// default when the key is absent, null, or not interpretable as a number.
func (s Summary) Float(key string) float64 {
	def := Defaults[key]
	v, ok := s[key]
	if !ok || v == nil {
		return def
	}
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
		return def
	default:
		return def
	}
}
