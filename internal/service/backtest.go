package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opsagent/reorder/internal/backtest"
	"github.com/opsagent/reorder/internal/config"
	"github.com/opsagent/reorder/internal/domain"
	"github.com/opsagent/reorder/internal/repository"
	"github.com/opsagent/reorder/internal/storage"
	"github.com/opsagent/reorder/pkg/logger"
)

// BacktestService replays the reorder policy over history and exports
// the resulting ledger.
type BacktestService struct {
	store    repository.Store
	runner   *backtest.Runner
	objects  storage.ObjectStorage
	defaults config.EngineConfig
}

// BacktestRequest narrows one run. Zero values fall back to the service
// defaults and the full extent of the sales series.
type BacktestRequest struct {
	SKUs       []string
	Start      time.Time
	End        time.Time
	WindowDays int
	ZScore     float64
}

// BacktestOutcome pairs the report with where its ledger was exported.
type BacktestOutcome struct {
	Report     *backtest.RunReport `json:"report"`
	LedgerPath string              `json:"ledger_path,omitempty"`
	ObjectKey  string              `json:"object_key,omitempty"`
}

func NewBacktestService(store repository.Store, objects storage.ObjectStorage, cfg config.EngineConfig) *BacktestService {
	return &BacktestService{
		store:    store,
		runner:   backtest.NewRunner(cfg.BacktestWorkers),
		objects:  objects,
		defaults: cfg,
	}
}

// Run executes the backtest and, when an output directory or object
// storage is configured, exports the ledger CSV.
func (s *BacktestService) Run(ctx context.Context, req BacktestRequest, outputDir string) (*BacktestOutcome, error) {
	sales, err := s.store.AllSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales history: %w", err)
	}

	suppliers, err := s.store.Suppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	suppliers = filterSuppliers(suppliers, req.SKUs)
	if len(suppliers) == 0 {
		return nil, fmt.Errorf("no suppliers matched the requested skus")
	}

	opts := s.options(req)
	report, err := s.runner.Run(ctx, sales, suppliers, opts)
	if err != nil {
		return nil, err
	}

	outcome := &BacktestOutcome{Report: report}
	ledger := report.Ledger()
	if len(ledger) == 0 {
		return outcome, nil
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("backtest_ledger_%s.csv", stamp)

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
		path := filepath.Join(outputDir, name)
		if err := backtest.WriteLedgerCSV(path, ledger); err != nil {
			return nil, fmt.Errorf("failed to write ledger csv: %w", err)
		}
		outcome.LedgerPath = path
	}

	if s.objects != nil {
		var buf bytes.Buffer
		if err := backtest.EncodeLedgerCSV(&buf, ledger); err != nil {
			return nil, fmt.Errorf("failed to encode ledger csv: %w", err)
		}
		if err := s.objects.UploadObject(ctx, name, "text/csv", buf.Bytes()); err != nil {
			logger.Log.Warn().Err(err).Str("key", name).Msg("ledger upload failed, local copy is still available")
		} else {
			outcome.ObjectKey = name
		}
	}

	return outcome, nil
}

func (s *BacktestService) options(req BacktestRequest) backtest.Options {
	eng := engineOptions(s.defaults)
	// The simulator evaluates at end of day, so today's sale is part of
	// the trailing window.
	eng.IncludeEvalDate = true

	if req.WindowDays > 0 {
		eng.WindowDays = req.WindowDays
	}
	if req.ZScore > 0 {
		eng.ZScore = req.ZScore
	}

	return backtest.Options{
		Engine: eng,
		Start:  req.Start,
		End:    req.End,
	}
}

func filterSuppliers(suppliers []domain.SupplierConfig, skus []string) []domain.SupplierConfig {
	if len(skus) == 0 {
		return suppliers
	}

	wanted := make(map[string]bool, len(skus))
	for _, sku := range skus {
		wanted[sku] = true
	}

	filtered := suppliers[:0]
	for _, sup := range suppliers {
		if wanted[sup.SKU] {
			filtered = append(filtered, sup)
		}
	}
	return filtered
}
