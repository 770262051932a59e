package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Load reads a comma-delimited flow table with a header row.
// Any failure to open or parse the file is a MissingInputError: from the
// pipeline's perspective the input is simply not usable.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MissingInputError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("empty file")
		}
		return nil, &MissingInputError{Path: path, Err: err}
	}

	t := NewTable(header)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MissingInputError{Path: path, Err: err}
		}
		if err := t.AppendRow(record); err != nil {
			return nil, &MissingInputError{Path: path, Err: err}
		}
	}
	return t, nil
}
