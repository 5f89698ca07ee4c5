package repository

import (
	"context"

	"github.com/opsagent/reorder/internal/domain"
)

// SalesRepository serves historical daily sales.
type SalesRepository interface {
	SalesHistory(ctx context.Context, sku string) ([]domain.SalesRecord, error)
	AllSales(ctx context.Context) ([]domain.SalesRecord, error)
}

// SupplierRepository serves per-SKU replenishment parameters.
type SupplierRepository interface {
	Suppliers(ctx context.Context) ([]domain.SupplierConfig, error)
	Supplier(ctx context.Context, sku string) (domain.SupplierConfig, error)
}

// Store is the full data access surface the services need.
type Store interface {
	SalesRepository
	SupplierRepository
}
