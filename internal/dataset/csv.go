package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/opsagent/reorder/internal/domain"
	"github.com/opsagent/reorder/internal/engine"
)

const dateLayout = "2006-01-02"

// LoadSales reads a sales history CSV with columns date, sku, qty_sold.
func LoadSales(path string) ([]domain.SalesRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file: %w", err)
	}
	defer f.Close()

	return ParseSales(f)
}

// ParseSales decodes sales records from CSV data.
func ParseSales(r io.Reader) ([]domain.SalesRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	for _, required := range []string{"date", "sku", "qty_sold"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("sales CSV missing column %q", required)
		}
	}

	var records []domain.SalesRecord
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record: %w", err)
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(record[colMap["date"]]))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", record[colMap["date"]], err)
		}
		units, err := strconv.ParseFloat(strings.TrimSpace(record[colMap["qty_sold"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid qty_sold %q: %w", record[colMap["qty_sold"]], err)
		}
		if units < 0 {
			return nil, fmt.Errorf("negative qty_sold %v on %s", units, date.Format(dateLayout))
		}

		records = append(records, domain.SalesRecord{
			SKU:       strings.TrimSpace(record[colMap["sku"]]),
			Date:      date,
			UnitsSold: units,
		})
	}

	return records, nil
}

// LoadSuppliers reads a supplier CSV with columns sku, lead_time_days,
// current_stock, target_stock and an optional pack_size (default 1).
func LoadSuppliers(path string) ([]domain.SupplierConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open suppliers file: %w", err)
	}
	defer f.Close()

	return ParseSuppliers(f)
}

// ParseSuppliers decodes supplier configs from CSV data.
func ParseSuppliers(r io.Reader) ([]domain.SupplierConfig, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	for _, required := range []string{"sku", "lead_time_days", "current_stock", "target_stock"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("suppliers CSV missing column %q", required)
		}
	}
	packIdx, hasPack := colMap["pack_size"]

	var suppliers []domain.SupplierConfig
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record: %w", err)
		}

		leadTime, err := strconv.Atoi(strings.TrimSpace(record[colMap["lead_time_days"]]))
		if err != nil {
			return nil, fmt.Errorf("invalid lead_time_days %q: %w", record[colMap["lead_time_days"]], err)
		}
		currentStock, err := strconv.ParseFloat(strings.TrimSpace(record[colMap["current_stock"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid current_stock %q: %w", record[colMap["current_stock"]], err)
		}
		targetStock, err := strconv.ParseFloat(strings.TrimSpace(record[colMap["target_stock"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target_stock %q: %w", record[colMap["target_stock"]], err)
		}

		sku := strings.TrimSpace(record[colMap["sku"]])

		// An absent or empty pack_size column means single units. A value
		// that is present but non-positive is a config error, not a
		// default: it must be rejected here, not sanitized away.
		packSize := 1
		if hasPack && packIdx < len(record) {
			if raw := strings.TrimSpace(record[packIdx]); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil {
					return nil, fmt.Errorf("invalid pack_size %q: %w", raw, err)
				}
				if parsed < 1 {
					return nil, fmt.Errorf("sku %s: %w", sku, &engine.InvalidConfigError{Field: "pack_size", Reason: "must be >= 1"})
				}
				packSize = parsed
			}
		}

		suppliers = append(suppliers, domain.SupplierConfig{
			SKU:          sku,
			LeadTimeDays: leadTime,
			PackSize:     packSize,
			CurrentStock: currentStock,
			TargetStock:  targetStock,
		})
	}

	return suppliers, nil
}

// AggregateDaily sums sales per SKU per calendar day and fills every
// day of the overall date range with an explicit zero record, so that
// gap days are visible to the demand statistics. Output is ordered by
// SKU then date.
func AggregateDaily(records []domain.SalesRecord) []domain.SalesRecord {
	if len(records) == 0 {
		return nil
	}

	type key struct {
		sku string
		day time.Time
	}
	totals := make(map[key]float64)
	skuSet := make(map[string]struct{})

	first := utcDay(records[0].Date)
	last := first
	for _, rec := range records {
		d := utcDay(rec.Date)
		totals[key{rec.SKU, d}] += rec.UnitsSold
		skuSet[rec.SKU] = struct{}{}
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	skus := make([]string, 0, len(skuSet))
	for sku := range skuSet {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	var out []domain.SalesRecord
	for _, sku := range skus {
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			out = append(out, domain.SalesRecord{
				SKU:       sku,
				Date:      d,
				UnitsSold: totals[key{sku, d}],
			})
		}
	}
	return out
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
