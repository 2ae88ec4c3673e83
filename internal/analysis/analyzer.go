package analysis

import (
	"math"

	"shelfsense/internal/config"
	"shelfsense/pkg/contracts/domain"
)

const (
	// salesWindowDays is the fixed trailing window sales figures cover
	salesWindowDays = 30.0

	// maxDaysStockRemaining is the sentinel for products with no sales
	maxDaysStockRemaining = 999.0
)

// Analyze computes derived metrics for every row. The input slice is not
// modified and every returned row carries exactly one category and one
// stock status.
func Analyze(rows []domain.InventoryRow, cfg config.AnalysisConfig) []domain.AnalyzedRow {
	if len(rows) == 0 {
		return []domain.AnalyzedRow{}
	}

	velocities := make([]float64, len(rows))
	for i, row := range rows {
		velocities[i] = velocity(row.SalesLast30Days)
	}
	cutoff := velocityCutoff(velocities, cfg.BestSellingPercentile)

	analyzed := make([]domain.AnalyzedRow, len(rows))
	for i, row := range rows {
		analyzed[i] = analyzeRow(row, velocities[i], cutoff, cfg)
	}
	return analyzed
}

// velocity converts a 30-day sales figure into units sold per day
func velocity(salesLast30Days float64) float64 {
	v := salesLast30Days / salesWindowDays
	if v < 0 {
		return 0
	}
	return v
}

// analyzeRow derives all metrics for a single row
func analyzeRow(row domain.InventoryRow, v, cutoff float64, cfg config.AnalysisConfig) domain.AnalyzedRow {
	reorderPoint := v * (row.LeadTimeDays + cfg.SafetyStockDays)

	out := domain.AnalyzedRow{
		InventoryRow:       row,
		SalesVelocity:      v,
		Category:           categorize(v, cutoff, cfg),
		ReorderPoint:       reorderPoint,
		StockStatus:        stockStatus(row.CurrentStock, v, reorderPoint, cfg.LowStockBufferPct),
		DaysStockRemaining: daysStockRemaining(row.CurrentStock, v),
		ReorderQuantity:    reorderQuantity(row.CurrentStock, v, reorderPoint),
		InventoryValue:     row.CurrentStock * row.UnitCost,
		MonthlySalesValue:  row.SalesLast30Days * row.UnitCost,
	}

	if out.InventoryValue > 0 {
		out.TurnoverRatio = out.MonthlySalesValue * 12 / out.InventoryValue
	}

	return out
}

// categorize assigns exactly one movement category. Precedence:
//
//  1. Velocity below the slow-moving cutoff (including zero sales) is
//     always SlowMoving; such rows never reach the percentile rule.
//  2. Velocity at or above both the table-wide percentile cutoff and the
//     fast-moving floor is BestSelling.
//  3. Everything else is FastMoving.
func categorize(v, cutoff float64, cfg config.AnalysisConfig) domain.Category {
	if v == 0 || v < cfg.SlowMovingMaxVelocity {
		return domain.CategorySlowMoving
	}
	if v >= cutoff && v >= cfg.FastMovingMinVelocity {
		return domain.CategoryBestSelling
	}
	return domain.CategoryFastMoving
}

// stockStatus compares current stock to the reorder point. A product with
// no sales has a zero reorder point and is always OK, whatever its stock.
func stockStatus(stock, v, reorderPoint, bufferPct float64) domain.StockStatus {
	if v == 0 {
		return domain.StockStatusOK
	}
	if stock < reorderPoint {
		return domain.StockStatusReorder
	}
	if stock < reorderPoint*(1+bufferPct) {
		return domain.StockStatusLow
	}
	return domain.StockStatusOK
}

// daysStockRemaining estimates how long current stock lasts at the current
// velocity, capped at the no-sales sentinel.
func daysStockRemaining(stock, v float64) float64 {
	if v <= 0 {
		return maxDaysStockRemaining
	}
	days := stock / v
	if days > maxDaysStockRemaining {
		return maxDaysStockRemaining
	}
	return days
}

// reorderQuantity suggests how many units to order: enough to get back to
// the reorder point plus a 30-day supply, less what is already on hand.
func reorderQuantity(stock, v, reorderPoint float64) float64 {
	var supply float64
	if v > 0 {
		supply = math.Ceil(v * salesWindowDays)
	}
	qty := reorderPoint - stock + supply
	if qty < 0 {
		return 0
	}
	return qty
}
