package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsagent/reorder/internal/domain"
)

// Store serves sales history and supplier configs from Postgres.
// Implements repository.Store.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) SalesHistory(ctx context.Context, sku string) ([]domain.SalesRecord, error) {
	var records []domain.SalesRecord
	query := `
		SELECT sku, date, qty_sold
		FROM sales_history
		WHERE sku = $1
		ORDER BY date
	`
	if err := s.db.SelectContext(ctx, &records, query, sku); err != nil {
		return nil, fmt.Errorf("failed to load sales history for %s: %w", sku, err)
	}
	return records, nil
}

func (s *Store) AllSales(ctx context.Context) ([]domain.SalesRecord, error) {
	var records []domain.SalesRecord
	query := `
		SELECT sku, date, qty_sold
		FROM sales_history
		ORDER BY sku, date
	`
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to load sales history: %w", err)
	}
	return records, nil
}

func (s *Store) Suppliers(ctx context.Context) ([]domain.SupplierConfig, error) {
	var suppliers []domain.SupplierConfig
	query := `
		SELECT sku, lead_time_days, pack_size, current_stock, target_stock
		FROM suppliers
		ORDER BY sku
	`
	if err := s.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *Store) Supplier(ctx context.Context, sku string) (domain.SupplierConfig, error) {
	var supplier domain.SupplierConfig
	query := `
		SELECT sku, lead_time_days, pack_size, current_stock, target_stock
		FROM suppliers
		WHERE sku = $1
	`
	if err := s.db.GetContext(ctx, &supplier, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SupplierConfig{}, fmt.Errorf("no supplier config for sku %s", sku)
		}
		return domain.SupplierConfig{}, fmt.Errorf("failed to load supplier %s: %w", sku, err)
	}
	return supplier, nil
}
