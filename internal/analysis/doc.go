// Package analysis computes derived inventory metrics: sales velocity,
// movement category, reorder point and stock status, plus the financial
// metrics used by the summary view.
//
// Analyze is pure and total over validated input: it never fails, never
// mutates its input, and depends only on the rows and the thresholds. The
// single cross-row coupling is the best-selling percentile cutoff, which
// ranks velocities across the whole table.
package analysis
