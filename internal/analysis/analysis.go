// Package analysis implements the upstream statistical analyzers: temporal
// patterns, packet-size distribution, TLS fingerprints, IP reputation, and
// the overall flow report. Each analyzer summarizes the whole flow table
// into the flat JSON document the feature merger consumes.
package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cvalentine99/vpnflow/internal/dataset"
)

// writeJSON persists a summary document, creating parent directories.
func writeJSON(v any, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &dataset.WriteError{Path: path, Err: err}
	}
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return &dataset.WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return &dataset.WriteError{Path: path, Err: err}
	}
	return nil
}
