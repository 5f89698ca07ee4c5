package backtest

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opsagent/reorder/internal/domain"
	"github.com/opsagent/reorder/pkg/logger"
)

// RunReport is the outcome of a multi-SKU backtest. A SKU that fails is
// isolated: its error is recorded here and the remaining SKUs complete.
type RunReport struct {
	Results   map[string]*Result     `json:"-"`
	Summaries []domain.BacktestSummary `json:"summaries"`
	// Failures maps SKU to the error message that stopped its run.
	Failures map[string]string `json:"failures,omitempty"`
}

// Ledger concatenates every SKU's audit trail, ordered by SKU then
// date, suitable for tabular export.
func (r *RunReport) Ledger() []domain.BacktestDayRecord {
	skus := make([]string, 0, len(r.Results))
	for sku := range r.Results {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	var rows []domain.BacktestDayRecord
	for _, sku := range skus {
		rows = append(rows, r.Results[sku].Ledger...)
	}
	return rows
}

// Runner shards a multi-SKU backtest across a worker pool. SKUs share
// no mutable state, so the only coordination is collecting results.
type Runner struct {
	sim     *Simulator
	workers int
}

func NewRunner(workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{sim: NewSimulator(), workers: workers}
}

// Run backtests every supplier against its slice of the sales history.
func (r *Runner) Run(ctx context.Context, sales []domain.SalesRecord, suppliers []domain.SupplierConfig, opts Options) (*RunReport, error) {
	bySKU := make(map[string][]domain.SalesRecord)
	for _, rec := range sales {
		bySKU[rec.SKU] = append(bySKU[rec.SKU], rec)
	}

	report := &RunReport{
		Results:  make(map[string]*Result, len(suppliers)),
		Failures: make(map[string]string),
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, supplier := range suppliers {
		supplier := supplier
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := r.sim.Run(bySKU[supplier.SKU], supplier, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Log.Warn().Err(err).Str("sku", supplier.SKU).Msg("backtest: sku failed, continuing with others")
				report.Failures[supplier.SKU] = err.Error()
				return nil
			}
			report.Results[supplier.SKU] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(report.Results))
	for sku := range report.Results {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	for _, sku := range skus {
		report.Summaries = append(report.Summaries, report.Results[sku].Summary)
	}

	return report, nil
}
