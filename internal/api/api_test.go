package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsagent/reorder/internal/cache"
	"github.com/opsagent/reorder/internal/config"
	"github.com/opsagent/reorder/internal/dataset"
	"github.com/opsagent/reorder/internal/domain"
	"github.com/opsagent/reorder/internal/service"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var sales []domain.SalesRecord
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		sales = append(sales, domain.SalesRecord{
			SKU:       "SKU-A",
			Date:      start.AddDate(0, 0, i),
			UnitsSold: 10,
		})
	}
	suppliers := []domain.SupplierConfig{
		{SKU: "SKU-A", LeadTimeDays: 5, PackSize: 6, CurrentStock: 20, TargetStock: 100},
	}
	store := dataset.NewRepository(sales, suppliers)

	engCfg := config.EngineConfig{ZScore: 1.65, WindowDays: 14, DemandFloor: 1.0, MissingDays: "zero", BacktestWorkers: 2}
	services := &Services{
		Recommend: service.NewRecommendService(store, cache.NewNoopRecommendationCache(), nil, engCfg),
		Backtest:  service.NewBacktestService(store, nil, engCfg),
	}
	return NewRouter(services, nil)
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := doRequest(t, testRouter(t), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGetSKUs(t *testing.T) {
	w := doRequest(t, testRouter(t), http.MethodGet, "/api/v1/skus", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		SKUs []string `json:"skus"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.SKUs) != 1 || resp.SKUs[0] != "SKU-A" {
		t.Fatalf("skus = %v, want [SKU-A]", resp.SKUs)
	}
}

func TestRecommendSKUEndpoint(t *testing.T) {
	w := doRequest(t, testRouter(t), http.MethodGet, "/api/v1/recommend/SKU-A?date=2025-07-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var rec domain.ReorderRecommendation
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rec.ShouldReorder || rec.RoundedQuantity != 84 {
		t.Fatalf("got should_reorder=%t quantity=%d, want reorder of 84", rec.ShouldReorder, rec.RoundedQuantity)
	}
}

func TestRecommendSKUBadDate(t *testing.T) {
	w := doRequest(t, testRouter(t), http.MethodGet, "/api/v1/recommend/SKU-A?date=01-07-2025", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRecommendAllEndpoint(t *testing.T) {
	w := doRequest(t, testRouter(t), http.MethodPost, "/api/v1/recommend?date=2025-07-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Recommendations []domain.ReorderRecommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(resp.Recommendations))
	}
}

func TestBacktestEndpoint(t *testing.T) {
	body := `{"skus":["SKU-A"],"start":"2025-06-10","end":"2025-06-20"}`
	w := doRequest(t, testRouter(t), http.MethodPost, "/api/v1/backtest", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Report struct {
			Summaries []domain.BacktestSummary `json:"summaries"`
		} `json:"report"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Report.Summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(resp.Report.Summaries))
	}
	if got := resp.Report.Summaries[0].TotalDays; got != 11 {
		t.Errorf("TotalDays = %d, want 11", got)
	}
}

func TestInvalidateCacheEndpoint(t *testing.T) {
	w := doRequest(t, testRouter(t), http.MethodPost, "/api/v1/cache/invalidate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestBacktestEndpointBadDate(t *testing.T) {
	w := doRequest(t, testRouter(t), http.MethodPost, "/api/v1/backtest", `{"start":"junk"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
