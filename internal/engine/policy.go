package engine

import (
	"math"
	"time"

	"github.com/opsagent/reorder/internal/domain"
)

const (
	// DefaultServiceZ is the service-level multiplier applied to demand
	// volatility over the lead time. 1.65 corresponds to roughly a 95%
	// single-sided service level under a normal demand assumption.
	DefaultServiceZ = 1.65

	// DefaultDemandFloor is the scale below which average daily demand
	// is considered too small to trust: the confidence term
	// avg/(avg+floor) approaches zero as demand does.
	DefaultDemandFloor = 1.0
)

// PolicyOptions parameterizes one recommendation. Passed explicitly on
// every call; the engine holds no ambient state.
type PolicyOptions struct {
	ZScore      float64
	DemandFloor float64
}

func (o PolicyOptions) withDefaults() PolicyOptions {
	if o.ZScore == 0 {
		o.ZScore = DefaultServiceZ
	}
	if o.DemandFloor == 0 {
		o.DemandFloor = DefaultDemandFloor
	}
	return o
}

// Options bundles everything RecommendForSKU needs: the statistics
// window configuration plus the policy parameters.
type Options struct {
	WindowDays        int
	ZScore            float64
	DemandFloor       float64
	VolatilityWindows []int
	MissingDays       MissingDayPolicy
	IncludeEvalDate   bool
}

// RoundToPack rounds quantity up to the nearest multiple of packSize
// that covers it. Zero stays zero regardless of pack size.
func RoundToPack(quantity float64, packSize int) (int, error) {
	if packSize < 1 {
		return 0, &InvalidConfigError{Field: "pack_size", Reason: "must be >= 1"}
	}
	if quantity <= 0 {
		return 0, nil
	}
	packs := math.Ceil(quantity / float64(packSize))
	return int(packs) * packSize, nil
}

// Recommend computes a reorder decision from the demand profile and the
// supplier parameters. Deterministic and side-effect free.
//
//	safety stock  = z * sigma * sqrt(lead time)
//	reorder point = avg daily demand * lead time + safety stock
//	reorder iff current stock < reorder point (strict)
//	quantity      = target - current, rounded up to the pack size
func Recommend(stats domain.DemandStats, supplier domain.SupplierConfig, evalDate time.Time, opts PolicyOptions) (domain.ReorderRecommendation, error) {
	opts = opts.withDefaults()

	if err := validateSupplier(supplier); err != nil {
		return domain.ReorderRecommendation{}, err
	}

	safety := opts.ZScore * stats.Sigma * math.Sqrt(float64(supplier.LeadTimeDays))
	rop := stats.AvgDailyDemand*float64(supplier.LeadTimeDays) + safety

	rec := domain.ReorderRecommendation{
		SKU:            supplier.SKU,
		EvaluationDate: evalDate,
		SafetyStock:    safety,
		ReorderPoint:   rop,
		ShouldReorder:  supplier.CurrentStock < rop,
		Stats:          stats,
		Confidence:     confidenceScore(stats, opts.DemandFloor),
	}

	if rec.ShouldReorder {
		rec.RawQuantity = math.Max(0, supplier.TargetStock-supplier.CurrentStock)
		rounded, err := RoundToPack(rec.RawQuantity, supplier.PackSize)
		if err != nil {
			return domain.ReorderRecommendation{}, err
		}
		rec.RoundedQuantity = rounded

		by := dayKey(evalDate)
		rec.ReorderByDate = &by
		return rec, nil
	}

	// Not reordering yet: project the date when stock declining at the
	// average daily rate crosses the reorder point. Undefined when
	// there is no demand.
	if stats.AvgDailyDemand > 0 {
		days := math.Floor((supplier.CurrentStock - rop) / stats.AvgDailyDemand)
		if days < 0 {
			days = 0
		}
		by := dayKey(evalDate).AddDate(0, 0, int(days))
		rec.ReorderByDate = &by
	}

	return rec, nil
}

// RecommendForSKU is the single-shot entry point: it derives the demand
// statistics from raw history for the primary window plus the volatility
// cross-check windows, then applies the reorder policy.
func RecommendForSKU(history []domain.SalesRecord, supplier domain.SupplierConfig, evalDate time.Time, opts Options) (domain.ReorderRecommendation, error) {
	if err := validateSupplier(supplier); err != nil {
		return domain.ReorderRecommendation{}, err
	}

	statsOpts := StatsOptions{
		WindowDays:      opts.WindowDays,
		MissingDays:     opts.MissingDays,
		IncludeEvalDate: opts.IncludeEvalDate,
	}
	stats, err := ComputeStats(history, evalDate, statsOpts)
	if err != nil {
		if ie, ok := err.(*InsufficientDataError); ok && ie.SKU == "" {
			return domain.ReorderRecommendation{}, &InsufficientDataError{SKU: supplier.SKU}
		}
		return domain.ReorderRecommendation{}, err
	}

	rec, err := Recommend(stats, supplier, evalDate, PolicyOptions{
		ZScore:      opts.ZScore,
		DemandFloor: opts.DemandFloor,
	})
	if err != nil {
		return domain.ReorderRecommendation{}, err
	}

	if len(opts.VolatilityWindows) > 0 {
		checks, err := ComputeWindowStats(history, evalDate, opts.VolatilityWindows, statsOpts)
		if err != nil {
			return domain.ReorderRecommendation{}, err
		}
		rec.VolatilityChecks = checks
	}

	return rec, nil
}

// confidenceScore maps the demand profile to [0,1]. It is the product
// of three independent penalties, each in [0,1] and monotonic:
//
//	history:   sampleDays/windowDays  (1 when the window was full)
//	volatility: 1/(1+cv) where cv = sigma/avg
//	stability:  avg/(avg+floor)      (0 as demand approaches zero)
//
// Zero average demand yields zero confidence: the projection math is
// undefined there, and the instability is surfaced through this score
// rather than an error.
func confidenceScore(stats domain.DemandStats, floor float64) float64 {
	if stats.AvgDailyDemand <= 0 {
		return 0
	}

	hist := 1.0
	if stats.WindowDays > 0 && stats.SampleDays < stats.WindowDays {
		hist = float64(stats.SampleDays) / float64(stats.WindowDays)
	}

	cv := stats.Sigma / stats.AvgDailyDemand
	volatility := 1.0 / (1.0 + cv)
	stability := stats.AvgDailyDemand / (stats.AvgDailyDemand + floor)

	score := hist * volatility * stability
	return math.Max(0, math.Min(1, score))
}

func validateSupplier(supplier domain.SupplierConfig) error {
	if supplier.CurrentStock < 0 {
		return &InvalidConfigError{Field: "current_stock", Reason: "must be >= 0"}
	}
	if supplier.LeadTimeDays < 0 {
		return &InvalidConfigError{Field: "lead_time_days", Reason: "must be >= 0"}
	}
	if supplier.PackSize < 1 {
		return &InvalidConfigError{Field: "pack_size", Reason: "must be >= 1"}
	}
	return nil
}
