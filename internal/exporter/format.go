package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a derived value for CSV output with exactly 2 decimal
// places, so values like 13.4 appear as 13.40.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatVelocity keeps 4 decimal places; velocities are small numbers and
// 2 places would flatten the differences the categories are built on.
func formatVelocity(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// formatExact writes a raw input value with the shortest representation
// that parses back to the same float64. Raw columns must survive an
// export/re-ingest round trip byte for byte.
func formatExact(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
