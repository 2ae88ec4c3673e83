package ingest

import (
	"fmt"
	"strings"
)

// MissingColumnError reports every required column absent from the header
// row, not just the first one found. Suggestions maps each missing column
// to headers in the file that look like plausible matches.
type MissingColumnError struct {
	Columns     []string            `json:"columns"`
	Suggestions map[string][]string `json:"suggestions,omitempty"`
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
	if len(e.Suggestions) > 0 {
		var hints []string
		for col, matches := range e.Suggestions {
			hints = append(hints, fmt.Sprintf("%s (did you mean %s?)", col, strings.Join(matches, " or ")))
		}
		msg += "; " + strings.Join(hints, "; ")
	}
	return msg
}

// EmptyFileError indicates the file had no data rows beneath the header
type EmptyFileError struct {
	Filename string `json:"filename"`
}

// Error implements the error interface
func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("file %q contains no data rows", e.Filename)
}

// UnsupportedFormatError indicates the file extension is not CSV or XLSX
type UnsupportedFormatError struct {
	Ext string `json:"ext"`
}

// Error implements the error interface
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: expected .csv or .xlsx", e.Ext)
}

// MalformedFileError indicates the file has a supported extension but its
// content could not be parsed as that format.
type MalformedFileError struct {
	Filename string `json:"filename"`
	Err      error  `json:"-"`
}

// Error implements the error interface
func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("file %q could not be parsed: %v", e.Filename, e.Err)
}

// Unwrap exposes the underlying parse error
func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

// UnparsableRow records a data row excluded during ingestion
type UnparsableRow struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Report is the structured summary of an ingestion pass. It is always
// returned alongside the accepted rows so the caller can render row-level
// problems without treating them as fatal.
type Report struct {
	Filename          string          `json:"filename"`
	RowsAccepted      int             `json:"rows_accepted"`
	RowsRejected      int             `json:"rows_rejected"`
	DuplicatesDropped int             `json:"duplicates_dropped"`
	LeadTimeDefaults  int             `json:"lead_time_defaults"`
	LeadTimeColumn    bool            `json:"lead_time_column_present"`
	Rejected          []UnparsableRow `json:"rejected,omitempty"`
}

// HasRejections reports whether any rows were excluded
func (r *Report) HasRejections() bool {
	return r.RowsRejected > 0 || r.DuplicatesDropped > 0
}
