// Package ingest parses uploaded inventory snapshots (CSV or Excel) into
// validated domain.InventoryRow collections.
//
// Header matching is case and whitespace insensitive and understands the
// common aliases ERP exports use ("Item no", "Qty on hand", "Average Cost"
// and friends). Numeric cells are coerced leniently: currency symbols,
// thousands separators and percent signs are stripped before parsing.
//
// Validation failures fall into two classes. Structural failures (missing
// required columns, empty file, unsupported format) abort the load and are
// returned as typed errors. Row-level failures (unparsable or negative
// numeric fields, blank product IDs, duplicate product IDs) exclude the
// offending row and are itemized in the returned Report so callers can
// surface them instead of silently dropping data.
package ingest
