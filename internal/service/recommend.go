package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/opsagent/reorder/internal/cache"
	"github.com/opsagent/reorder/internal/config"
	"github.com/opsagent/reorder/internal/domain"
	"github.com/opsagent/reorder/internal/engine"
	"github.com/opsagent/reorder/internal/rationale"
	"github.com/opsagent/reorder/internal/repository"
	"github.com/opsagent/reorder/pkg/logger"
)

// RecommendService evaluates the reorder policy against the configured
// data source, memoizing results and attaching a rationale.
type RecommendService struct {
	store     repository.Store
	cache     cache.RecommendationCache
	generator rationale.Generator
	fallback  rationale.Generator
	defaults  engine.Options
}

func NewRecommendService(store repository.Store, recCache cache.RecommendationCache, gen rationale.Generator, cfg config.EngineConfig) *RecommendService {
	fallback := rationale.NewTemplateGenerator()
	if gen == nil {
		gen = fallback
	}
	return &RecommendService{
		store:     store,
		cache:     recCache,
		generator: gen,
		fallback:  fallback,
		defaults:  engineOptions(cfg),
	}
}

func engineOptions(cfg config.EngineConfig) engine.Options {
	return engine.Options{
		WindowDays:        cfg.WindowDays,
		ZScore:            cfg.ZScore,
		DemandFloor:       cfg.DemandFloor,
		VolatilityWindows: cfg.VolatilityWindows,
		MissingDays:       engine.MissingDayPolicy(cfg.MissingDays),
	}
}

// Options returns the engine defaults this service was built with.
func (s *RecommendService) Options() engine.Options {
	return s.defaults
}

// InvalidateCache drops every memoized recommendation. Called after
// the underlying sales or supplier data changes.
func (s *RecommendService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// SKUs lists every SKU with a supplier config.
func (s *RecommendService) SKUs(ctx context.Context) ([]string, error) {
	suppliers, err := s.store.Suppliers(ctx)
	if err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(suppliers))
	for _, sup := range suppliers {
		skus = append(skus, sup.SKU)
	}
	sort.Strings(skus)
	return skus, nil
}

// RecommendSKU evaluates one SKU as of evalDate.
func (s *RecommendService) RecommendSKU(ctx context.Context, sku string, evalDate time.Time) (domain.ReorderRecommendation, error) {
	if cached, ok, err := s.cache.Get(ctx, sku, evalDate, s.defaults); err != nil {
		logger.Log.Warn().Err(err).Str("sku", sku).Msg("recommendation cache read failed, evaluating directly")
	} else if ok {
		return cached, nil
	}

	supplier, err := s.store.Supplier(ctx, sku)
	if err != nil {
		return domain.ReorderRecommendation{}, err
	}

	rec, err := s.evaluate(ctx, supplier, evalDate)
	if err != nil {
		return domain.ReorderRecommendation{}, err
	}

	if err := s.cache.Set(ctx, rec, s.defaults); err != nil {
		logger.Log.Warn().Err(err).Str("sku", sku).Msg("recommendation cache write failed")
	}
	return rec, nil
}

// RecommendAll evaluates every supplier as of evalDate. A SKU that
// fails is skipped with its error collected, so one bad series never
// blocks the rest of the catalog.
func (s *RecommendService) RecommendAll(ctx context.Context, evalDate time.Time) ([]domain.ReorderRecommendation, map[string]string, error) {
	suppliers, err := s.store.Suppliers(ctx)
	if err != nil {
		return nil, nil, err
	}

	recs := make([]domain.ReorderRecommendation, 0, len(suppliers))
	failures := make(map[string]string)
	for _, supplier := range suppliers {
		rec, err := s.evaluate(ctx, supplier, evalDate)
		if err != nil {
			logger.Log.Warn().Err(err).Str("sku", supplier.SKU).Msg("recommendation failed, continuing with others")
			failures[supplier.SKU] = err.Error()
			continue
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].SKU < recs[j].SKU })
	return recs, failures, nil
}

func (s *RecommendService) evaluate(ctx context.Context, supplier domain.SupplierConfig, evalDate time.Time) (domain.ReorderRecommendation, error) {
	history, err := s.store.SalesHistory(ctx, supplier.SKU)
	if err != nil {
		return domain.ReorderRecommendation{}, fmt.Errorf("failed to load history for %s: %w", supplier.SKU, err)
	}

	rec, err := engine.RecommendForSKU(history, supplier, evalDate, s.defaults)
	if err != nil {
		return domain.ReorderRecommendation{}, err
	}

	rec.Rationale = s.buildRationale(ctx, rec, supplier)
	return rec, nil
}

func (s *RecommendService) buildRationale(ctx context.Context, rec domain.ReorderRecommendation, supplier domain.SupplierConfig) string {
	text, err := s.generator.Generate(ctx, rec, supplier)
	if err == nil {
		return text
	}

	logger.Log.Warn().Err(err).Str("sku", rec.SKU).Msg("rationale generator failed, using template")
	text, fallbackErr := s.fallback.Generate(ctx, rec, supplier)
	if fallbackErr != nil {
		return ""
	}
	return text
}
