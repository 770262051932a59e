package dataset

import "fmt"

// MissingInputError reports a required input that does not exist or cannot
// be read or parsed. Never retried; the run aborts.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing or unreadable input %s: %v", e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// MalformedSummaryError reports a summary document that exists but is not a
// flat key-value structure.
type MalformedSummaryError struct {
	Path string
	Err  error
}

func (e *MalformedSummaryError) Error() string {
	return fmt.Sprintf("malformed summary %s: %v", e.Path, e.Err)
}

func (e *MalformedSummaryError) Unwrap() error { return e.Err }

// SchemaError reports a required column absent from the flow table.
type SchemaError struct {
	Column string
	Stage  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q missing at %s", e.Column, e.Stage)
}

// WriteError reports a failure to create the output directory or write the
// output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
