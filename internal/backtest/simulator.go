package backtest

import (
	"time"

	"github.com/opsagent/reorder/internal/domain"
	"github.com/opsagent/reorder/internal/engine"
)

// Options parameterizes one simulation run. The engine options apply to
// every daily policy decision.
type Options struct {
	Engine engine.Options
	// Start and End clamp the simulated date range. Zero values mean
	// the full extent of the sales series.
	Start time.Time
	End   time.Time
}

// Simulator replays the reorder policy over a historical sales series
// for one SKU, maintaining simulated stock and lead-time-delayed
// replenishments. Runs are deterministic: identical inputs always
// produce identical ledgers.
type Simulator struct{}

func NewSimulator() *Simulator { return &Simulator{} }

// replenishment is an outstanding order waiting to arrive.
type replenishment struct {
	arrival  time.Time
	quantity float64
}

// Run simulates day by day, in date order with no gaps:
//
//  1. receive replenishments due today
//  2. subtract realized demand, clamping at zero (lost sales) and
//     flagging the stockout
//  3. invoke the reorder policy with trailing-window stats as of today
//     and the simulated stock level
//  4. when the policy reorders, enqueue the quantity to arrive after
//     the supplier lead time
//
// Stats never see data past the current day: no look-ahead.
func (s *Simulator) Run(history []domain.SalesRecord, supplier domain.SupplierConfig, opts Options) (*Result, error) {
	if len(history) == 0 {
		return nil, &engine.InsufficientDataError{SKU: supplier.SKU}
	}
	if supplier.CurrentStock < 0 {
		return nil, &engine.InvalidConfigError{Field: "current_stock", Reason: "must be >= 0"}
	}

	demandByDay := make(map[time.Time]float64, len(history))
	first := utcDay(history[0].Date)
	last := first
	for _, rec := range history {
		d := utcDay(rec.Date)
		demandByDay[d] += rec.UnitsSold
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	if !opts.Start.IsZero() && utcDay(opts.Start).After(first) {
		first = utcDay(opts.Start)
	}
	if !opts.End.IsZero() && utcDay(opts.End).Before(last) {
		last = utcDay(opts.End)
	}

	statsOpts := engine.StatsOptions{
		WindowDays:      opts.Engine.WindowDays,
		MissingDays:     opts.Engine.MissingDays,
		IncludeEvalDate: true,
	}
	policyOpts := engine.PolicyOptions{
		ZScore:      opts.Engine.ZScore,
		DemandFloor: opts.Engine.DemandFloor,
	}

	stock := supplier.CurrentStock
	var pending []replenishment
	ledger := make([]domain.BacktestDayRecord, 0, int(last.Sub(first).Hours()/24)+1)

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		row := domain.BacktestDayRecord{
			SKU:         supplier.SKU,
			Date:        day,
			StockBefore: stock,
		}

		// 1. arrivals due today
		remaining := pending[:0]
		for _, order := range pending {
			if order.arrival.Equal(day) {
				row.ArrivedQuantity += order.quantity
			} else {
				remaining = append(remaining, order)
			}
		}
		pending = remaining
		stock += row.ArrivedQuantity

		// 2. realized demand, lost sales below zero
		row.Demand = demandByDay[day]
		stock -= row.Demand
		if stock < 0 {
			stock = 0
			row.Stockout = true
		}
		row.StockAfter = stock

		// 3. policy decision with stats as of today
		stats, err := engine.ComputeStats(history, day, statsOpts)
		if err != nil {
			return nil, err
		}

		current := supplier
		current.CurrentStock = stock
		rec, err := engine.Recommend(stats, current, day, policyOpts)
		if err != nil {
			return nil, err
		}

		// 4. place the order
		if rec.ShouldReorder && rec.RoundedQuantity > 0 {
			row.ReorderTriggered = true
			row.QuantityOrdered = rec.RoundedQuantity
			pending = append(pending, replenishment{
				arrival:  day.AddDate(0, 0, supplier.LeadTimeDays),
				quantity: float64(rec.RoundedQuantity),
			})
		}

		ledger = append(ledger, row)
	}

	return &Result{
		SKU:     supplier.SKU,
		Ledger:  ledger,
		Summary: summarize(supplier.SKU, ledger),
	}, nil
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
