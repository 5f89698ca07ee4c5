package backtest

import (
	"github.com/opsagent/reorder/internal/domain"
)

// Result is one SKU's completed simulation: the day-by-day audit trail
// plus the aggregated service metrics.
type Result struct {
	SKU     string                     `json:"sku"`
	Ledger  []domain.BacktestDayRecord `json:"ledger"`
	Summary domain.BacktestSummary     `json:"summary"`
}

func summarize(sku string, ledger []domain.BacktestDayRecord) domain.BacktestSummary {
	summary := domain.BacktestSummary{
		SKU:       sku,
		TotalDays: len(ledger),
	}
	if len(ledger) == 0 {
		return summary
	}

	var stockSum float64
	for _, row := range ledger {
		if row.Stockout {
			summary.StockoutDays++
		}
		stockSum += row.StockAfter
	}

	summary.ServiceLevel = 1.0 - float64(summary.StockoutDays)/float64(summary.TotalDays)
	summary.AvgInventory = stockSum / float64(summary.TotalDays)
	return summary
}
