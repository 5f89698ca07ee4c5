// Package rationale turns a reorder recommendation into a short
// human-readable explanation. It is an optional enrichment layered on
// top of the decision engine: generators are injected into the service
// layer and never into the engine itself.
package rationale

import (
	"context"
	"fmt"

	"github.com/opsagent/reorder/internal/domain"
)

// Generator produces a one-or-two sentence rationale for a
// recommendation.
type Generator interface {
	Generate(ctx context.Context, rec domain.ReorderRecommendation, supplier domain.SupplierConfig) (string, error)
}

// TemplateGenerator renders a deterministic rationale from the
// recommendation's own numbers. Always succeeds; also the fallback when
// an external generator fails.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator { return &TemplateGenerator{} }

func (g *TemplateGenerator) Generate(_ context.Context, rec domain.ReorderRecommendation, supplier domain.SupplierConfig) (string, error) {
	if !rec.ShouldReorder {
		if rec.ReorderByDate == nil {
			return fmt.Sprintf(
				"Demand (avg daily) ≈ %.2f for %s; no reorder projected at current demand. Stock %.0f is above the reorder point %.1f.",
				rec.Stats.AvgDailyDemand, rec.SKU, supplier.CurrentStock, rec.ReorderPoint,
			), nil
		}
		return fmt.Sprintf(
			"Demand (avg daily) ≈ %.2f for %s. Stock %.0f covers the reorder point %.1f; next reorder expected by %s.",
			rec.Stats.AvgDailyDemand, rec.SKU, supplier.CurrentStock, rec.ReorderPoint,
			rec.ReorderByDate.Format("2006-01-02"),
		), nil
	}

	return fmt.Sprintf(
		"Demand (avg daily) ≈ %.2f. With lead time %d days and demand volatility (sigma) ≈ %.2f, safety stock ≈ %.1f and reorder point ≈ %.1f. Current stock is %.0f, so order %d units to top up to target %.0f.",
		rec.Stats.AvgDailyDemand, supplier.LeadTimeDays, rec.Stats.Sigma,
		rec.SafetyStock, rec.ReorderPoint, supplier.CurrentStock,
		rec.RoundedQuantity, supplier.TargetStock,
	), nil
}
