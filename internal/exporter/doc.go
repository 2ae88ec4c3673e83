// Package exporter renders analyzed inventory tables as CSV, either to a
// byte slice for HTTP downloads or to a file on disk.
//
// The export schema is the canonical input schema with the derived columns
// appended, so an exported file can be re-ingested directly. Raw input
// values are written with full precision to keep that round trip lossless;
// derived values are formatted for presentation.
package exporter
