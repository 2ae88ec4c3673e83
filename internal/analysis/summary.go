package analysis

import (
	"shelfsense/pkg/contracts/domain"
)

// Summarize aggregates an analyzed table into the metrics shown on the
// dashboard header and included in upload responses.
func Summarize(rows []domain.AnalyzedRow) domain.Summary {
	summary := domain.Summary{
		TotalProducts: len(rows),
		CategoryCounts: map[domain.Category]int{
			domain.CategorySlowMoving:  0,
			domain.CategoryFastMoving:  0,
			domain.CategoryBestSelling: 0,
		},
		StatusCounts: map[domain.StockStatus]int{
			domain.StockStatusOK:      0,
			domain.StockStatusLow:     0,
			domain.StockStatusReorder: 0,
		},
	}

	var turnoverSum float64
	for _, row := range rows {
		summary.TotalInventoryValue += row.InventoryValue
		summary.TotalSalesValue += row.MonthlySalesValue
		summary.TotalReorderValue += row.ReorderQuantity * row.UnitCost
		summary.CategoryCounts[row.Category]++
		summary.StatusCounts[row.StockStatus]++
		if row.NeedsReorder() {
			summary.ProductsNeedingReorder++
		}
		turnoverSum += row.TurnoverRatio
	}

	if len(rows) > 0 {
		summary.AverageTurnoverRatio = turnoverSum / float64(len(rows))
	}

	return summary
}
