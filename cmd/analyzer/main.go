// Command analyzer runs the inventory pipeline once from the command line:
// ingest a CSV/XLSX snapshot, analyze it with the configured thresholds,
// write the export CSV and print the summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shelfsense/internal/analysis"
	"shelfsense/internal/config"
	"shelfsense/internal/exporter"
	"shelfsense/internal/infrastructure"
	"shelfsense/internal/ingest"
)

func main() {
	in := flag.String("in", "", "input inventory file (.csv or .xlsx)")
	out := flag.String("out", "", "output CSV path (defaults to <input>_analyzed.csv in the exports dir)")
	slowMax := flag.Float64("slow-max", 0, "override slow-moving max velocity (units/day)")
	fastMin := flag.Float64("fast-min", 0, "override fast-moving min velocity (units/day)")
	percentile := flag.Float64("best-percentile", 0, "override best-selling percentile (0-1)")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer -in <file> [-out <file>]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	thresholds := cfg.Analysis
	if *slowMax > 0 {
		thresholds.SlowMovingMaxVelocity = *slowMax
	}
	if *fastMin > 0 {
		thresholds.FastMovingMinVelocity = *fastMin
	}
	if *percentile > 0 {
		thresholds.BestSellingPercentile = *percentile
	}
	if err := thresholds.Validate(); err != nil {
		logger.Error("invalid thresholds", "error", err)
		os.Exit(1)
	}

	ctx := infrastructure.EnsureTraceID(context.Background())

	loader := ingest.NewLoader(logger, thresholds.DefaultLeadTimeDays)
	rows, report, err := loader.LoadFile(ctx, *in)
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	if report.HasRejections() {
		logger.Warn("some rows were excluded",
			slog.Int("rows_rejected", report.RowsRejected),
			slog.Int("duplicates_dropped", report.DuplicatesDropped))
		for _, rej := range report.Rejected {
			logger.Warn("row rejected",
				slog.Int("line", rej.Line),
				slog.String("field", rej.Field),
				slog.String("reason", rej.Reason))
		}
	}

	analyzed := analysis.Analyze(rows, thresholds)
	summary := analysis.Summarize(analyzed)

	outPath := *out
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
		outPath = cfg.ExportPath(base + "_analyzed.csv")
	}

	writer := exporter.NewWriter(logger)
	if err := writer.WriteFile(outPath, analyzed); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Analyzed %d products (%d rejected, %d duplicates dropped)\n",
		summary.TotalProducts, report.RowsRejected, report.DuplicatesDropped)
	fmt.Printf("Inventory value: %.2f  Monthly sales value: %.2f\n",
		summary.TotalInventoryValue, summary.TotalSalesValue)
	for category, count := range summary.CategoryCounts {
		fmt.Printf("  %-13s %d\n", category, count)
	}
	fmt.Printf("Needing reorder: %d  Estimated reorder value: %.2f\n",
		summary.ProductsNeedingReorder, summary.TotalReorderValue)
	fmt.Printf("Export written to %s\n", outPath)
}
