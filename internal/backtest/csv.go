package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/opsagent/reorder/internal/domain"
)

// WriteLedgerCSV writes the audit trail as one row per SKU per day.
func WriteLedgerCSV(path string, ledger []domain.BacktestDayRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return EncodeLedgerCSV(f, ledger)
}

// EncodeLedgerCSV streams the ledger to any writer (file, HTTP
// response, object-storage buffer).
func EncodeLedgerCSV(out io.Writer, ledger []domain.BacktestDayRecord) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"date",
		"sku",
		"stock_before",
		"arrived_quantity",
		"demand",
		"stock_after",
		"stockout",
		"reorder_triggered",
		"quantity_ordered",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			r.Date.Format("2006-01-02"),
			r.SKU,
			fmtFloat(r.StockBefore),
			fmtFloat(r.ArrivedQuantity),
			fmtFloat(r.Demand),
			fmtFloat(r.StockAfter),
			strconv.FormatBool(r.Stockout),
			strconv.FormatBool(r.ReorderTriggered),
			strconv.Itoa(r.QuantityOrdered),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
