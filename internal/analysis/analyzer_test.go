package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsense/internal/config"
	"shelfsense/pkg/contracts/domain"
)

func defaultThresholds() config.AnalysisConfig {
	return config.AnalysisConfig{
		SlowMovingMaxVelocity: 1.0,
		FastMovingMinVelocity: 5.0,
		BestSellingPercentile: 0.90,
		LowStockBufferPct:     0.20,
		SafetyStockDays:       7,
		DefaultLeadTimeDays:   14,
	}
}

func row(id string, stock, sales30, cost, lead float64) domain.InventoryRow {
	return domain.InventoryRow{
		ProductID:       id,
		Description:     "test product " + id,
		CurrentStock:    stock,
		SalesLast30Days: sales30,
		UnitCost:        cost,
		LeadTimeDays:    lead,
	}
}

func TestAnalyzeVelocityIsExact(t *testing.T) {
	rows := []domain.InventoryRow{
		row("A", 10, 60, 1, 14),
		row("B", 10, 0, 1, 14),
		row("C", 10, 1, 1, 14),
		row("D", 10, 123.45, 1, 14),
	}

	analyzed := Analyze(rows, defaultThresholds())
	require.Len(t, analyzed, len(rows))

	for i, ar := range analyzed {
		assert.Equal(t, rows[i].SalesLast30Days/30, ar.SalesVelocity,
			"velocity must be exactly sales/30 for %s", ar.ProductID)
	}
}

func TestAnalyzeZeroSalesEdgeCase(t *testing.T) {
	// Zero velocity products are always SlowMoving with status OK,
	// regardless of stock level.
	rows := []domain.InventoryRow{
		row("NOSALES-HIGH", 10000, 0, 2.5, 14),
		row("NOSALES-ZERO", 0, 0, 2.5, 14),
	}

	analyzed := Analyze(rows, defaultThresholds())

	for _, ar := range analyzed {
		assert.Equal(t, domain.CategorySlowMoving, ar.Category, ar.ProductID)
		assert.Equal(t, domain.StockStatusOK, ar.StockStatus, ar.ProductID)
		assert.Equal(t, 0.0, ar.ReorderPoint, ar.ProductID)
		assert.Equal(t, 0.0, ar.ReorderQuantity, ar.ProductID)
		assert.Equal(t, 999.0, ar.DaysStockRemaining, ar.ProductID)
	}
}

func TestAnalyzeWorkedExample(t *testing.T) {
	// stock 100, sales 60/30d, cost 5, lead 10 with no safety stock:
	// velocity 2.0, reorder point 20, status OK.
	cfg := defaultThresholds()
	cfg.SafetyStockDays = 0

	analyzed := Analyze([]domain.InventoryRow{row("X", 100, 60, 5, 10)}, cfg)
	require.Len(t, analyzed, 1)

	ar := analyzed[0]
	assert.Equal(t, 2.0, ar.SalesVelocity)
	assert.Equal(t, 20.0, ar.ReorderPoint)
	assert.Equal(t, domain.StockStatusOK, ar.StockStatus)
	// 2.0 is above the slow cutoff but below fast_min 5.0
	assert.Equal(t, domain.CategoryFastMoving, ar.Category)
	assert.Equal(t, 500.0, ar.InventoryValue)
	assert.Equal(t, 300.0, ar.MonthlySalesValue)
	assert.Equal(t, 50.0, ar.DaysStockRemaining)
}

func TestAnalyzeEveryRowGetsExactlyOneCategory(t *testing.T) {
	rows := []domain.InventoryRow{
		row("A", 50, 0, 1, 14),
		row("B", 50, 15, 1, 14),
		row("C", 50, 90, 1, 14),
		row("D", 50, 240, 1, 14),
		row("E", 50, 600, 1, 14),
		row("F", 50, 29.9, 1, 14),
	}

	valid := map[domain.Category]bool{
		domain.CategorySlowMoving:  true,
		domain.CategoryFastMoving:  true,
		domain.CategoryBestSelling: true,
	}

	analyzed := Analyze(rows, defaultThresholds())
	for _, ar := range analyzed {
		assert.True(t, valid[ar.Category], "row %s got unknown category %q", ar.ProductID, ar.Category)
	}

	// Deterministic: same input, same output
	again := Analyze(rows, defaultThresholds())
	assert.Equal(t, analyzed, again)
}

func TestCategorizePrecedence(t *testing.T) {
	cfg := defaultThresholds()

	tests := []struct {
		name     string
		velocity float64
		cutoff   float64
		want     domain.Category
	}{
		{"zero velocity is slow even with zero cutoff", 0, 0, domain.CategorySlowMoving},
		{"below slow threshold", 0.5, 0.2, domain.CategorySlowMoving},
		{"slow wins over percentile", 0.9, 0.5, domain.CategorySlowMoving},
		{"between thresholds", 3.0, 10.0, domain.CategoryFastMoving},
		{"above fast but below cutoff", 6.0, 10.0, domain.CategoryFastMoving},
		{"above cutoff and fast floor", 12.0, 10.0, domain.CategoryBestSelling},
		{"above cutoff but below fast floor", 4.0, 3.0, domain.CategoryFastMoving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorize(tt.velocity, tt.cutoff, cfg))
		})
	}
}

func TestBestSellingUsesTableDistribution(t *testing.T) {
	// Nine moderate movers and one outlier: only the outlier lands in the
	// top decile.
	rows := make([]domain.InventoryRow, 0, 10)
	for i := 0; i < 9; i++ {
		rows = append(rows, row(string(rune('A'+i)), 100, 180, 1, 14)) // velocity 6
	}
	rows = append(rows, row("HOT", 100, 1800, 1, 14)) // velocity 60

	analyzed := Analyze(rows, defaultThresholds())

	best := 0
	for _, ar := range analyzed {
		if ar.Category == domain.CategoryBestSelling {
			best++
			assert.Equal(t, "HOT", ar.ProductID)
		}
	}
	assert.Equal(t, 1, best)
}

func TestStockStatusBands(t *testing.T) {
	cfg := defaultThresholds()
	cfg.SafetyStockDays = 0
	// velocity 2, lead 10 → reorder point 20, low band up to 24

	tests := []struct {
		name  string
		stock float64
		want  domain.StockStatus
	}{
		{"below reorder point", 19, domain.StockStatusReorder},
		{"at reorder point is low band", 20, domain.StockStatusLow},
		{"inside buffer band", 23.9, domain.StockStatusLow},
		{"at buffer edge", 24, domain.StockStatusOK},
		{"well stocked", 100, domain.StockStatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzed := Analyze([]domain.InventoryRow{row("S", tt.stock, 60, 1, 10)}, cfg)
			assert.Equal(t, tt.want, analyzed[0].StockStatus)
		})
	}
}

func TestReorderQuantity(t *testing.T) {
	cfg := defaultThresholds()
	cfg.SafetyStockDays = 0

	// velocity 2, lead 10 → reorder point 20, 30-day supply = 60
	analyzed := Analyze([]domain.InventoryRow{
		row("LOW", 5, 60, 1, 10),    // 20 - 5 + 60 = 75
		row("FULL", 500, 60, 1, 10), // 20 - 500 + 60 < 0 → 0
	}, cfg)

	assert.Equal(t, 75.0, analyzed[0].ReorderQuantity)
	assert.Equal(t, 0.0, analyzed[1].ReorderQuantity)
}

func TestAnalyzeEmptyTable(t *testing.T) {
	analyzed := Analyze(nil, defaultThresholds())
	assert.NotNil(t, analyzed)
	assert.Empty(t, analyzed)
}

func TestAnalyzeDoesNotMutateInput(t *testing.T) {
	rows := []domain.InventoryRow{row("A", 100, 60, 5, 10)}
	original := rows[0]

	Analyze(rows, defaultThresholds())
	assert.Equal(t, original, rows[0])
}
