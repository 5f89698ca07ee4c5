package domain

import "time"

// SalesRecord is one day of realized demand for a SKU.
type SalesRecord struct {
	SKU       string    `json:"sku" db:"sku"`
	Date      time.Time `json:"date" db:"date"`
	UnitsSold float64   `json:"units_sold" db:"qty_sold"`
}

// SupplierConfig holds the per-SKU replenishment parameters.
type SupplierConfig struct {
	SKU          string  `json:"sku" db:"sku"`
	LeadTimeDays int     `json:"lead_time_days" db:"lead_time_days"`
	PackSize     int     `json:"pack_size" db:"pack_size"`
	CurrentStock float64 `json:"current_stock" db:"current_stock"`
	TargetStock  float64 `json:"target_stock" db:"target_stock"`
}

// DemandStats is the trailing-window demand profile for a SKU at one
// evaluation date. Recomputed fresh per evaluation, never mutated.
type DemandStats struct {
	AvgDailyDemand float64 `json:"avg_daily_demand"`
	Sigma          float64 `json:"sigma"`
	WindowDays     int     `json:"window_days"`
	// SampleDays is how many days actually contributed. Less than
	// WindowDays when history is short or missing days are excluded.
	SampleDays int `json:"sample_days"`
}

// ReorderRecommendation is the policy output for one SKU at one date.
// Pure function of DemandStats + SupplierConfig + evaluation date.
type ReorderRecommendation struct {
	SKU             string     `json:"sku"`
	EvaluationDate  time.Time  `json:"evaluation_date"`
	SafetyStock     float64    `json:"safety_stock"`
	ReorderPoint    float64    `json:"reorder_point"`
	ShouldReorder   bool       `json:"should_reorder"`
	RawQuantity     float64    `json:"raw_quantity"`
	RoundedQuantity int        `json:"rounded_quantity"`
	// ReorderByDate is nil when average demand is zero and no reorder
	// is due (no projection possible).
	ReorderByDate *time.Time `json:"reorder_by_date"`
	Confidence    float64    `json:"confidence"`
	Rationale     string     `json:"rationale,omitempty"`

	Stats DemandStats `json:"stats"`
	// VolatilityChecks carries the secondary-window stats used for
	// cross-checking the primary operating window.
	VolatilityChecks []DemandStats `json:"volatility_checks,omitempty"`
}

// BacktestDayRecord is one simulated day for one SKU. Appended, never
// mutated; the per-run audit trail.
type BacktestDayRecord struct {
	SKU              string    `json:"sku"`
	Date             time.Time `json:"date"`
	StockBefore      float64   `json:"stock_before"`
	ArrivedQuantity  float64   `json:"arrived_quantity"`
	Demand           float64   `json:"demand"`
	StockAfter       float64   `json:"stock_after"`
	Stockout         bool      `json:"stockout"`
	ReorderTriggered bool      `json:"reorder_triggered"`
	QuantityOrdered  int       `json:"quantity_ordered"`
}

// BacktestSummary aggregates one SKU's simulated run.
type BacktestSummary struct {
	SKU          string  `json:"sku"`
	TotalDays    int     `json:"total_days"`
	StockoutDays int     `json:"stockout_days"`
	ServiceLevel float64 `json:"service_level"`
	AvgInventory float64 `json:"avg_inventory"`
}
