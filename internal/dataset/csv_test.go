package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opsagent/reorder/internal/engine"
)

const salesCSV = `date,sku,qty_sold
2024-01-01,SKU-A,5
2024-01-01,SKU-A,2
2024-01-03,SKU-A,4
2024-01-02,SKU-B,7
`

const suppliersCSV = `sku,lead_time_days,current_stock,target_stock,pack_size
SKU-A,7,35,150,6
SKU-B,14,10,200,
`

func TestParseSales(t *testing.T) {
	records, err := ParseSales(strings.NewReader(salesCSV))
	if err != nil {
		t.Fatalf("ParseSales() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if records[0].SKU != "SKU-A" || records[0].UnitsSold != 5 {
		t.Errorf("first record = %+v", records[0])
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !records[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v", records[0].Date, want)
	}
}

func TestParseSalesRejectsNegativeQty(t *testing.T) {
	_, err := ParseSales(strings.NewReader("date,sku,qty_sold\n2024-01-01,SKU-A,-3\n"))
	if err == nil {
		t.Fatal("expected error for negative qty_sold")
	}
}

func TestParseSalesMissingColumn(t *testing.T) {
	_, err := ParseSales(strings.NewReader("date,sku\n2024-01-01,SKU-A\n"))
	if err == nil || !strings.Contains(err.Error(), "qty_sold") {
		t.Fatalf("error = %v, want missing qty_sold column", err)
	}
}

func TestParseSuppliers(t *testing.T) {
	suppliers, err := ParseSuppliers(strings.NewReader(suppliersCSV))
	if err != nil {
		t.Fatalf("ParseSuppliers() error = %v", err)
	}
	if len(suppliers) != 2 {
		t.Fatalf("got %d suppliers, want 2", len(suppliers))
	}
	if suppliers[0].PackSize != 6 {
		t.Errorf("SKU-A pack size = %d, want 6", suppliers[0].PackSize)
	}
	// empty pack_size falls back to 1
	if suppliers[1].PackSize != 1 {
		t.Errorf("SKU-B pack size = %d, want 1", suppliers[1].PackSize)
	}
	if suppliers[1].LeadTimeDays != 14 || suppliers[1].TargetStock != 200 {
		t.Errorf("SKU-B = %+v", suppliers[1])
	}
}

func TestParseSuppliersRejectsNonPositivePackSize(t *testing.T) {
	tests := []struct {
		name string
		pack string
	}{
		{"Zero", "0"},
		{"Negative", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := "sku,lead_time_days,current_stock,target_stock,pack_size\nSKU-A,7,35,150," + tt.pack + "\n"
			_, err := ParseSuppliers(strings.NewReader(csv))
			if err == nil {
				t.Fatalf("pack_size %s accepted, want rejection", tt.pack)
			}
			var invalid *engine.InvalidConfigError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want InvalidConfigError", err)
			}
			if invalid.Field != "pack_size" {
				t.Errorf("field = %s, want pack_size", invalid.Field)
			}
		})
	}
}

func TestAggregateDailyFillsGapsAndSums(t *testing.T) {
	records, err := ParseSales(strings.NewReader(salesCSV))
	if err != nil {
		t.Fatalf("ParseSales() error = %v", err)
	}

	daily := AggregateDaily(records)

	// 2 SKUs x 3 days (2024-01-01..03), every day present per SKU.
	if len(daily) != 6 {
		t.Fatalf("got %d rows, want 6", len(daily))
	}

	byKey := make(map[string]float64)
	for _, rec := range daily {
		byKey[rec.SKU+"|"+rec.Date.Format("2006-01-02")] = rec.UnitsSold
	}

	tests := []struct {
		key  string
		want float64
	}{
		{"SKU-A|2024-01-01", 7}, // two records summed
		{"SKU-A|2024-01-02", 0}, // gap filled with zero
		{"SKU-A|2024-01-03", 4},
		{"SKU-B|2024-01-01", 0},
		{"SKU-B|2024-01-02", 7},
		{"SKU-B|2024-01-03", 0},
	}
	for _, tt := range tests {
		if got, ok := byKey[tt.key]; !ok || got != tt.want {
			t.Errorf("%s = %v (present %v), want %v", tt.key, got, ok, tt.want)
		}
	}
}

func TestRepository(t *testing.T) {
	sales, _ := ParseSales(strings.NewReader(salesCSV))
	suppliers, _ := ParseSuppliers(strings.NewReader(suppliersCSV))
	repo := NewRepository(sales, suppliers)
	ctx := context.Background()

	history, err := repo.SalesHistory(ctx, "SKU-A")
	if err != nil {
		t.Fatalf("SalesHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Errorf("SKU-A history has %d days, want 3", len(history))
	}

	all, err := repo.Suppliers(ctx)
	if err != nil {
		t.Fatalf("Suppliers() error = %v", err)
	}
	if len(all) != 2 || all[0].SKU != "SKU-A" {
		t.Errorf("suppliers = %+v", all)
	}

	if _, err := repo.Supplier(ctx, "SKU-MISSING"); err == nil {
		t.Error("expected error for unknown sku")
	}
}
