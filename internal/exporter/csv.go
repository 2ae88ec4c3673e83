package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"shelfsense/internal/ingest"
	"shelfsense/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize the file as UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer provides CSV export functionality for analyzed tables
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a new CSV writer instance
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Headers returns the export column order: the canonical input schema
// followed by the derived columns.
func Headers() []string {
	return []string{
		ingest.ColProductID,
		ingest.ColDescription,
		ingest.ColCurrentStock,
		ingest.ColSalesLast30Days,
		ingest.ColUnitCost,
		ingest.ColLeadTimeDays,
		"Sales_Velocity",
		"Category",
		"Reorder_Point",
		"Stock_Status",
		"Days_Stock_Remaining",
		"Reorder_Quantity",
		"Inventory_Value",
		"Monthly_Sales_Value",
		"Turnover_Ratio",
	}
}

// record converts one analyzed row into its CSV representation
func record(row domain.AnalyzedRow) []string {
	return []string{
		row.ProductID,
		row.Description,
		formatExact(row.CurrentStock),
		formatExact(row.SalesLast30Days),
		formatExact(row.UnitCost),
		formatExact(row.LeadTimeDays),
		formatVelocity(row.SalesVelocity),
		string(row.Category),
		formatFloat(row.ReorderPoint),
		string(row.StockStatus),
		formatFloat(row.DaysStockRemaining),
		formatFloat(row.ReorderQuantity),
		formatFloat(row.InventoryValue),
		formatFloat(row.MonthlySalesValue),
		formatFloat(row.TurnoverRatio),
	}
}

// Render produces the complete CSV document as bytes, BOM included
func (w *Writer) Render(rows []domain.AnalyzedRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	cw := csv.NewWriter(&buf)
	if err := cw.Write(Headers()); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(record(row)); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write failed: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFile writes the export to disk, creating parent directories
func (w *Writer) WriteFile(path string, rows []domain.AnalyzedRow) error {
	data, err := w.Render(rows)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	w.logger.Info("export written",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Int("bytes", len(data)))

	return nil
}
