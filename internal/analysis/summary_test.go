package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsense/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	cfg := defaultThresholds()
	cfg.SafetyStockDays = 0

	rows := []domain.InventoryRow{
		row("DEAD", 100, 0, 2, 14),  // slow, OK, value 200
		row("MED", 100, 60, 5, 10),  // fast, OK, value 500, sales value 300
		row("HOT", 5, 600, 1, 10),   // velocity 20, reorder point 200 > 5 → Reorder
	}

	analyzed := Analyze(rows, cfg)
	summary := Summarize(analyzed)

	assert.Equal(t, 3, summary.TotalProducts)
	assert.Equal(t, 200.0+500.0+5.0, summary.TotalInventoryValue)
	assert.Equal(t, 0.0+300.0+600.0, summary.TotalSalesValue)
	assert.Equal(t, 1, summary.StatusCounts[domain.StockStatusReorder])
	assert.Equal(t, 2, summary.StatusCounts[domain.StockStatusOK])
	assert.Equal(t, 1, summary.CategoryCounts[domain.CategorySlowMoving])
	assert.Equal(t, 1, summary.ProductsNeedingReorder)

	// HOT: reorder point 200, stock 5, 30-day supply 600 → qty 795, cost 1
	assert.Equal(t, 795.0, summary.TotalReorderValue)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalProducts)
	assert.Equal(t, 0.0, summary.AverageTurnoverRatio)
	require.NotNil(t, summary.CategoryCounts)
	require.NotNil(t, summary.StatusCounts)
	// Counts are pre-seeded so JSON consumers always see all keys
	assert.Len(t, summary.CategoryCounts, 3)
	assert.Len(t, summary.StatusCounts, 3)
}
