package dataset

import (
	"context"
	"fmt"
	"sort"

	"github.com/opsagent/reorder/internal/domain"
)

// Repository serves sales history and supplier configs from in-memory
// CSV datasets. Read-only after construction, safe for concurrent use.
type Repository struct {
	salesBySKU map[string][]domain.SalesRecord
	allSales   []domain.SalesRecord
	suppliers  map[string]domain.SupplierConfig
	skus       []string
}

// Open loads both CSV files and builds a repository over them.
func Open(salesPath, suppliersPath string) (*Repository, error) {
	sales, err := LoadSales(salesPath)
	if err != nil {
		return nil, err
	}
	suppliers, err := LoadSuppliers(suppliersPath)
	if err != nil {
		return nil, err
	}
	return NewRepository(sales, suppliers), nil
}

// NewRepository builds a repository from already-loaded records. Sales
// are aggregated to one record per SKU per day with gaps zero-filled.
func NewRepository(sales []domain.SalesRecord, suppliers []domain.SupplierConfig) *Repository {
	daily := AggregateDaily(sales)

	repo := &Repository{
		salesBySKU: make(map[string][]domain.SalesRecord),
		allSales:   daily,
		suppliers:  make(map[string]domain.SupplierConfig, len(suppliers)),
	}
	for _, rec := range daily {
		repo.salesBySKU[rec.SKU] = append(repo.salesBySKU[rec.SKU], rec)
	}
	for _, sup := range suppliers {
		repo.suppliers[sup.SKU] = sup
		repo.skus = append(repo.skus, sup.SKU)
	}
	sort.Strings(repo.skus)
	return repo
}

func (r *Repository) SalesHistory(ctx context.Context, sku string) ([]domain.SalesRecord, error) {
	return r.salesBySKU[sku], nil
}

func (r *Repository) AllSales(ctx context.Context) ([]domain.SalesRecord, error) {
	return r.allSales, nil
}

func (r *Repository) Suppliers(ctx context.Context) ([]domain.SupplierConfig, error) {
	out := make([]domain.SupplierConfig, 0, len(r.skus))
	for _, sku := range r.skus {
		out = append(out, r.suppliers[sku])
	}
	return out, nil
}

func (r *Repository) Supplier(ctx context.Context, sku string) (domain.SupplierConfig, error) {
	sup, ok := r.suppliers[sku]
	if !ok {
		return domain.SupplierConfig{}, fmt.Errorf("no supplier config for sku %s", sku)
	}
	return sup, nil
}
