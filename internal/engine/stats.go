package engine

import (
	"math"
	"time"

	"github.com/opsagent/reorder/internal/domain"
)

// MissingDayPolicy controls how days without a sales record inside the
// window contribute to the demand statistics.
type MissingDayPolicy string

const (
	// MissingAsZero counts a day with no record as zero demand.
	MissingAsZero MissingDayPolicy = "zero"
	// MissingExcluded drops days with no record from both the mean and
	// the variance denominators.
	MissingExcluded MissingDayPolicy = "excluded"
)

// StatsOptions parameterizes one demand-statistics computation.
type StatsOptions struct {
	WindowDays  int
	MissingDays MissingDayPolicy
	// IncludeEvalDate shifts the window to end at the evaluation date
	// itself instead of the day before. The backtest uses this so a
	// decision sees demand up to and including the current day.
	IncludeEvalDate bool
}

func (o StatsOptions) withDefaults() StatsOptions {
	if o.WindowDays <= 0 {
		o.WindowDays = 14
	}
	if o.MissingDays == "" {
		o.MissingDays = MissingAsZero
	}
	return o
}

// ComputeStats derives the rolling mean and sample standard deviation of
// daily demand for one SKU over the trailing window ending at evalDate.
//
// If fewer than WindowDays days of history exist before the window end,
// only the days since the earliest record are used and SampleDays
// reports the shrunken count so the policy can lower confidence.
// A history with zero records fails with InsufficientDataError.
func ComputeStats(history []domain.SalesRecord, evalDate time.Time, opts StatsOptions) (domain.DemandStats, error) {
	opts = opts.withDefaults()

	if len(history) == 0 {
		return domain.DemandStats{}, &InsufficientDataError{}
	}

	byDay := make(map[time.Time]float64, len(history))
	earliest := dayKey(history[0].Date)
	for _, rec := range history {
		d := dayKey(rec.Date)
		byDay[d] += rec.UnitsSold
		if d.Before(earliest) {
			earliest = d
		}
	}

	end := dayKey(evalDate)
	if !opts.IncludeEvalDate {
		end = end.AddDate(0, 0, -1)
	}
	start := end.AddDate(0, 0, -(opts.WindowDays - 1))
	if earliest.After(start) {
		start = earliest
	}

	var values []float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		units, ok := byDay[d]
		if !ok && opts.MissingDays == MissingExcluded {
			continue
		}
		values = append(values, units)
	}

	stats := domain.DemandStats{
		WindowDays: opts.WindowDays,
		SampleDays: len(values),
	}
	if len(values) == 0 {
		// History exists but none of it precedes the window end.
		return stats, nil
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	stats.AvgDailyDemand = sum / float64(len(values))

	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			diff := v - stats.AvgDailyDemand
			sq += diff * diff
		}
		stats.Sigma = math.Sqrt(sq / float64(len(values)-1))
	}

	return stats, nil
}

// ComputeWindowStats computes stats for several window lengths at once,
// in the given order. Used for the volatility cross-checks.
func ComputeWindowStats(history []domain.SalesRecord, evalDate time.Time, windows []int, opts StatsOptions) ([]domain.DemandStats, error) {
	out := make([]domain.DemandStats, 0, len(windows))
	for _, w := range windows {
		o := opts
		o.WindowDays = w
		stats, err := ComputeStats(history, evalDate, o)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

// dayKey normalizes a timestamp to its UTC calendar day.
func dayKey(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
