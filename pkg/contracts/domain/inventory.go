package domain

// Category classifies a product by its sales velocity
type Category string

const (
	CategorySlowMoving  Category = "Slow Moving"
	CategoryFastMoving  Category = "Fast Moving"
	CategoryBestSelling Category = "Best Selling"
)

// StockStatus is the assessment of current stock relative to the reorder point
type StockStatus string

const (
	StockStatusOK      StockStatus = "OK"
	StockStatusLow     StockStatus = "Low"
	StockStatusReorder StockStatus = "Reorder"
)

// InventoryRow represents one product from an uploaded inventory snapshot.
// All numeric fields are non-negative once the row passes ingestion.
type InventoryRow struct {
	ProductID       string  `json:"product_id" csv:"Product_ID" validate:"required"`
	Description     string  `json:"description" csv:"Description"`
	CurrentStock    float64 `json:"current_stock" csv:"Current_Stock" validate:"min=0"`
	SalesLast30Days float64 `json:"sales_last_30_days" csv:"Sales_Last_30_Days" validate:"min=0"`
	UnitCost        float64 `json:"unit_cost" csv:"Unit_Cost" validate:"min=0"`
	LeadTimeDays    float64 `json:"lead_time_days" csv:"Lead_Time_Days" validate:"min=0"`
}

// IsValid checks if the row data is acceptable for analysis
func (r InventoryRow) IsValid() bool {
	return r.ProductID != "" &&
		r.CurrentStock >= 0 && r.SalesLast30Days >= 0 &&
		r.UnitCost >= 0 && r.LeadTimeDays >= 0
}

// AnalyzedRow is an InventoryRow plus its derived metrics. Derived fields
// are pure functions of the row inputs and the analysis thresholds, with
// one exception: Category may depend on the velocity distribution of the
// whole table when the best-selling percentile rule applies.
type AnalyzedRow struct {
	InventoryRow

	SalesVelocity      float64     `json:"sales_velocity" csv:"Sales_Velocity"`
	Category           Category    `json:"category" csv:"Category"`
	ReorderPoint       float64     `json:"reorder_point" csv:"Reorder_Point"`
	StockStatus        StockStatus `json:"stock_status" csv:"Stock_Status"`
	DaysStockRemaining float64     `json:"days_stock_remaining" csv:"Days_Stock_Remaining"`
	ReorderQuantity    float64     `json:"reorder_quantity" csv:"Reorder_Quantity"`
	InventoryValue     float64     `json:"inventory_value" csv:"Inventory_Value"`
	MonthlySalesValue  float64     `json:"monthly_sales_value" csv:"Monthly_Sales_Value"`
	TurnoverRatio      float64     `json:"turnover_ratio" csv:"Turnover_Ratio"`
}

// NeedsReorder reports whether the product requires replenishment action
func (r AnalyzedRow) NeedsReorder() bool {
	return r.StockStatus == StockStatusReorder || r.StockStatus == StockStatusLow
}

// Summary holds aggregate metrics for an analyzed inventory table
type Summary struct {
	TotalProducts          int                 `json:"total_products"`
	TotalInventoryValue    float64             `json:"total_inventory_value"`
	TotalSalesValue        float64             `json:"total_sales_value"`
	TotalReorderValue      float64             `json:"total_reorder_value"`
	CategoryCounts         map[Category]int    `json:"category_counts"`
	StatusCounts           map[StockStatus]int `json:"status_counts"`
	ProductsNeedingReorder int                 `json:"products_needing_reorder"`
	AverageTurnoverRatio   float64             `json:"average_turnover_ratio"`
}
