package dataset

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cvalentine99/vpnflow/internal/integrity"
)

// Bounds are the observed min/max of a normalized column, persisted so a
// later run can rescale with the same reference frame.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Manifest describes a written table: shape, checksum and, when the table
// was normalized, the per-column bounds used.
type Manifest struct {
	Path      string            `json:"path"`
	Rows      int               `json:"rows"`
	Columns   int               `json:"columns"`
	Checksum  string            `json:"blake3"`
	Bounds    map[string]Bounds `json:"normalization_bounds,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Write persists the table as a comma-delimited file at path, creating
// parent directories as needed. The table is written to a temporary file in
// the target directory and renamed into place, so a failure mid-write leaves
// any previous output at path untouched.
func Write(t *Table, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(t.Columns())
	if writeErr == nil {
		for i := 0; i < t.NumRows() && writeErr == nil; i++ {
			writeErr = w.Write(t.Row(i))
		}
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: writeErr}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// WriteManifest writes the companion manifest for a table already persisted
// at path, including its BLAKE3 checksum. The manifest lands next to the
// table as <path>.manifest.json.
func WriteManifest(t *Table, path string, bounds map[string]Bounds) (*Manifest, error) {
	sum, err := integrity.ChecksumFile(path)
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}

	m := &Manifest{
		Path:      path,
		Rows:      t.NumRows(),
		Columns:   t.NumColumns(),
		Checksum:  sum,
		Bounds:    bounds,
		CreatedAt: time.Now().UTC(),
	}

	raw, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	manifestPath := path + ".manifest.json"
	if err := os.WriteFile(manifestPath, raw, 0644); err != nil {
		return nil, &WriteError{Path: manifestPath, Err: err}
	}
	return m, nil
}

// LoadManifest reads a manifest written by WriteManifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingInputError{Path: path, Err: err}
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &MissingInputError{Path: path, Err: err}
	}
	return &m, nil
}
