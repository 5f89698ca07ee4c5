package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/opsagent/reorder/internal/domain"
)

const eps = 1e-9

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func records(sku string, start time.Time, units ...float64) []domain.SalesRecord {
	out := make([]domain.SalesRecord, 0, len(units))
	for i, u := range units {
		out = append(out, domain.SalesRecord{
			SKU:       sku,
			Date:      start.AddDate(0, 0, i),
			UnitsSold: u,
		})
	}
	return out
}

func TestComputeStatsMeanAndSigma(t *testing.T) {
	start := day(2024, 3, 1)
	history := records("SKU-A", start, 2, 4, 6)

	stats, err := ComputeStats(history, day(2024, 3, 4), StatsOptions{WindowDays: 3})
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}

	if math.Abs(stats.AvgDailyDemand-4.0) > eps {
		t.Errorf("avg = %v, want 4", stats.AvgDailyDemand)
	}
	// sample std of {2,4,6} is 2
	if math.Abs(stats.Sigma-2.0) > eps {
		t.Errorf("sigma = %v, want 2", stats.Sigma)
	}
	if stats.SampleDays != 3 {
		t.Errorf("sample days = %d, want 3", stats.SampleDays)
	}
}

func TestComputeStatsExcludesEvalDateByDefault(t *testing.T) {
	start := day(2024, 3, 1)
	history := records("SKU-A", start, 5, 5, 100)

	// window ends the day before 2024-03-03, so the spike that day is
	// invisible without IncludeEvalDate.
	stats, err := ComputeStats(history, day(2024, 3, 3), StatsOptions{WindowDays: 7})
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	if math.Abs(stats.AvgDailyDemand-5.0) > eps {
		t.Errorf("avg = %v, want 5 (eval date excluded)", stats.AvgDailyDemand)
	}

	inclusive, err := ComputeStats(history, day(2024, 3, 3), StatsOptions{WindowDays: 7, IncludeEvalDate: true})
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	want := (5.0 + 5.0 + 100.0) / 3.0
	if math.Abs(inclusive.AvgDailyDemand-want) > eps {
		t.Errorf("inclusive avg = %v, want %v", inclusive.AvgDailyDemand, want)
	}
}

func TestComputeStatsShortHistoryShrinksWindow(t *testing.T) {
	start := day(2024, 3, 1)
	history := records("SKU-A", start, 3, 3, 3)

	stats, err := ComputeStats(history, day(2024, 3, 4), StatsOptions{WindowDays: 14})
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	if stats.SampleDays != 3 {
		t.Errorf("sample days = %d, want 3", stats.SampleDays)
	}
	if stats.WindowDays != 14 {
		t.Errorf("window days = %d, want 14", stats.WindowDays)
	}
	if math.Abs(stats.AvgDailyDemand-3.0) > eps {
		t.Errorf("avg = %v, want 3", stats.AvgDailyDemand)
	}
}

func TestComputeStatsMissingDayPolicies(t *testing.T) {
	history := []domain.SalesRecord{
		{SKU: "SKU-A", Date: day(2024, 3, 1), UnitsSold: 5},
		{SKU: "SKU-A", Date: day(2024, 3, 3), UnitsSold: 7},
	}

	tests := []struct {
		name       string
		policy     MissingDayPolicy
		wantAvg    float64
		wantSigma  float64
		wantSample int
	}{
		{"GapAsZero", MissingAsZero, 4.0, math.Sqrt(13), 3},
		{"GapExcluded", MissingExcluded, 6.0, math.Sqrt2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := ComputeStats(history, day(2024, 3, 4), StatsOptions{WindowDays: 3, MissingDays: tt.policy})
			if err != nil {
				t.Fatalf("ComputeStats() error = %v", err)
			}
			if math.Abs(stats.AvgDailyDemand-tt.wantAvg) > eps {
				t.Errorf("avg = %v, want %v", stats.AvgDailyDemand, tt.wantAvg)
			}
			if math.Abs(stats.Sigma-tt.wantSigma) > eps {
				t.Errorf("sigma = %v, want %v", stats.Sigma, tt.wantSigma)
			}
			if stats.SampleDays != tt.wantSample {
				t.Errorf("sample days = %d, want %d", stats.SampleDays, tt.wantSample)
			}
		})
	}
}

func TestComputeStatsEmptyHistory(t *testing.T) {
	_, err := ComputeStats(nil, day(2024, 3, 4), StatsOptions{WindowDays: 7})
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("ComputeStats() error = %v, want InsufficientDataError", err)
	}
}

func TestComputeStatsNoDataBeforeWindowEnd(t *testing.T) {
	// Records exist but all after the evaluation date: degraded, not an error.
	history := records("SKU-A", day(2024, 3, 10), 5, 5)
	stats, err := ComputeStats(history, day(2024, 3, 1), StatsOptions{WindowDays: 7})
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	if stats.SampleDays != 0 || stats.AvgDailyDemand != 0 || stats.Sigma != 0 {
		t.Errorf("stats = %+v, want zeroed with SampleDays 0", stats)
	}
}

func TestComputeWindowStats(t *testing.T) {
	history := records("SKU-A", day(2024, 3, 1), 2, 4, 6, 8, 10, 12, 14)

	all, err := ComputeWindowStats(history, day(2024, 3, 8), []int{7, 14, 28}, StatsOptions{})
	if err != nil {
		t.Fatalf("ComputeWindowStats() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d stats, want 3", len(all))
	}
	if all[0].WindowDays != 7 || all[1].WindowDays != 14 || all[2].WindowDays != 28 {
		t.Errorf("window order not preserved: %+v", all)
	}
	if math.Abs(all[0].AvgDailyDemand-8.0) > eps {
		t.Errorf("7-day avg = %v, want 8", all[0].AvgDailyDemand)
	}
}
