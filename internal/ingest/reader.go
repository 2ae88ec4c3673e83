package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"shelfsense/pkg/contracts/domain"
)

// maxHeaderScanRows bounds how deep into a sheet we look for the header
// row. Excel exports often carry a title block above the real table.
const maxHeaderScanRows = 10

// Loader reads inventory snapshots from CSV and Excel files
type Loader struct {
	logger          *slog.Logger
	defaultLeadTime float64
}

// NewLoader creates a loader. Rows without a usable lead time get
// defaultLeadTimeDays.
func NewLoader(logger *slog.Logger, defaultLeadTimeDays float64) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:          logger,
		defaultLeadTime: defaultLeadTimeDays,
	}
}

// Load parses the named file content from r. The filename is only used for
// format dispatch and reporting; the data comes from the reader.
func (l *Loader) Load(ctx context.Context, filename string, r io.Reader) ([]domain.InventoryRow, *Report, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		records [][]string
		err     error
	)
	switch ext {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readExcel(r)
	default:
		// Legacy .xls (BIFF) is deliberately not readable here; excelize
		// only handles OOXML workbooks.
		return nil, nil, &UnsupportedFormatError{Ext: ext}
	}
	if err != nil {
		return nil, nil, &MalformedFileError{Filename: filename, Err: err}
	}

	rows, report, err := l.buildRows(ctx, filename, records)
	if err != nil {
		return nil, nil, err
	}

	l.logger.InfoContext(ctx, "inventory file ingested",
		slog.String("filename", filename),
		slog.Int("rows_accepted", report.RowsAccepted),
		slog.Int("rows_rejected", report.RowsRejected),
		slog.Int("duplicates_dropped", report.DuplicatesDropped))

	return rows, report, nil
}

// LoadFile parses the file at path
func (l *Loader) LoadFile(ctx context.Context, path string) ([]domain.InventoryRow, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return l.Load(ctx, filepath.Base(path), f)
}

// readCSV reads all records from a CSV stream. Ragged rows are tolerated;
// short rows are padded during field extraction.
func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv parse error: %w", err)
	}
	return records, nil
}

// readExcel extracts the inventory table from the first sheet that has one
func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var fallback [][]string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		if fallback == nil {
			fallback = rows
		}
		// Prefer a sheet whose header resolves every required column
		if idx := findHeaderRow(rows); idx >= 0 {
			return rows[idx:], nil
		}
	}

	if fallback == nil {
		return nil, fmt.Errorf("workbook contains no readable sheets")
	}
	return fallback, nil
}

// findHeaderRow scans the top of a sheet for a row that resolves all
// required columns. Returns -1 when no such row exists.
func findHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}
	for i := 0; i < limit; i++ {
		if _, missing := resolveColumns(rows[i]); len(missing) == 0 {
			return i
		}
	}
	return -1
}

// buildRows validates and coerces raw records into InventoryRows
func (l *Loader) buildRows(ctx context.Context, filename string, records [][]string) ([]domain.InventoryRow, *Report, error) {
	// Skip leading blank records before the header
	start := 0
	for start < len(records) && isBlankRecord(records[start]) {
		start++
	}
	if start >= len(records) {
		return nil, nil, &EmptyFileError{Filename: filename}
	}

	headers := records[start]
	cm, missing := resolveColumns(headers)
	if len(missing) > 0 {
		return nil, nil, &MissingColumnError{
			Columns:     missing,
			Suggestions: suggestColumns(missing, headers),
		}
	}

	report := &Report{Filename: filename}
	_, report.LeadTimeColumn = cm[ColLeadTimeDays]

	data := records[start+1:]
	if countDataRecords(data) == 0 {
		return nil, nil, &EmptyFileError{Filename: filename}
	}

	rows := make([]domain.InventoryRow, 0, len(data))
	seen := make(map[string]bool, len(data))

	for i, record := range data {
		line := start + i + 2 // 1-based, counting the header
		if isBlankRecord(record) {
			continue
		}

		row, bad := l.buildRow(record, cm, line, report)
		if bad != nil {
			report.RowsRejected++
			report.Rejected = append(report.Rejected, *bad)
			continue
		}

		if seen[row.ProductID] {
			report.DuplicatesDropped++
			l.logger.DebugContext(ctx, "duplicate product dropped",
				slog.String("product_id", row.ProductID),
				slog.Int("line", line))
			continue
		}
		seen[row.ProductID] = true
		rows = append(rows, row)
	}

	report.RowsAccepted = len(rows)
	return rows, report, nil
}

// buildRow coerces a single record. On failure it returns the rejection
// detail instead of a row.
func (l *Loader) buildRow(record []string, cm columnMap, line int, report *Report) (domain.InventoryRow, *UnparsableRow) {
	row := domain.InventoryRow{
		ProductID:   strings.TrimSpace(field(record, cm, ColProductID)),
		Description: strings.TrimSpace(field(record, cm, ColDescription)),
	}

	if row.ProductID == "" {
		return row, &UnparsableRow{Line: line, Field: ColProductID, Reason: "product id is blank"}
	}

	// Stock and sales default to zero on blank cells; cost must be present.
	var bad *UnparsableRow
	row.CurrentStock, bad = parseRequired(record, cm, ColCurrentStock, line, true)
	if bad != nil {
		return row, bad
	}
	row.SalesLast30Days, bad = parseRequired(record, cm, ColSalesLast30Days, line, true)
	if bad != nil {
		return row, bad
	}
	row.UnitCost, bad = parseRequired(record, cm, ColUnitCost, line, false)
	if bad != nil {
		return row, bad
	}

	row.LeadTimeDays = l.parseLeadTime(record, cm, report)

	return row, nil
}

// parseRequired parses a required numeric column. blankIsZero controls
// whether an empty cell coerces to 0 or rejects the row.
func parseRequired(record []string, cm columnMap, col string, line int, blankIsZero bool) (float64, *UnparsableRow) {
	raw := field(record, cm, col)
	v, err := parseNumber(raw)
	if err == errBlankCell {
		if blankIsZero {
			return 0, nil
		}
		return 0, &UnparsableRow{Line: line, Field: col, Value: raw, Reason: "value is blank"}
	}
	if err != nil {
		return 0, &UnparsableRow{Line: line, Field: col, Value: raw, Reason: "not a number"}
	}
	if v < 0 {
		return 0, &UnparsableRow{Line: line, Field: col, Value: raw, Reason: "negative value"}
	}
	return v, nil
}

// parseLeadTime never rejects a row: absent, blank, unparsable or negative
// lead times fall back to the configured default and are counted.
func (l *Loader) parseLeadTime(record []string, cm columnMap, report *Report) float64 {
	if !report.LeadTimeColumn {
		report.LeadTimeDefaults++
		return l.defaultLeadTime
	}
	v, err := parseNumber(field(record, cm, ColLeadTimeDays))
	if err != nil || v < 0 {
		report.LeadTimeDefaults++
		return l.defaultLeadTime
	}
	return v
}

// field extracts a cell by canonical column, tolerating short records
func field(record []string, cm columnMap, col string) string {
	idx, ok := cm[col]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// isBlankRecord reports whether every cell in the record is empty
func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// countDataRecords counts non-blank records
func countDataRecords(records [][]string) int {
	n := 0
	for _, r := range records {
		if !isBlankRecord(r) {
			n++
		}
	}
	return n
}

// stripBOM removes a UTF-8 byte order mark if present, since our own
// exports (and most Excel CSV saves) carry one.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
