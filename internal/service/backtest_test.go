package service

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestBacktestServiceRun(t *testing.T) {
	svc := NewBacktestService(testStore(), nil, testEngineConfig())
	outDir := t.TempDir()

	outcome, err := svc.Run(context.Background(), BacktestRequest{}, outDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := len(outcome.Report.Summaries); got != 2 {
		t.Fatalf("got %d summaries, want 2", got)
	}
	if outcome.LedgerPath == "" {
		t.Fatal("expected a ledger csv to be written")
	}

	data, err := os.ReadFile(outcome.LedgerPath)
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Header plus 30 days for each of the two SKUs.
	if len(lines) != 1+60 {
		t.Errorf("ledger has %d lines, want 61", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,sku,") {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestBacktestServiceFiltersSKUs(t *testing.T) {
	svc := NewBacktestService(testStore(), nil, testEngineConfig())

	outcome, err := svc.Run(context.Background(), BacktestRequest{SKUs: []string{"SKU-A"}}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(outcome.Report.Summaries); got != 1 {
		t.Fatalf("got %d summaries, want 1", got)
	}
	if outcome.Report.Summaries[0].SKU != "SKU-A" {
		t.Errorf("summary for %s, want SKU-A", outcome.Report.Summaries[0].SKU)
	}
	if outcome.LedgerPath != "" {
		t.Errorf("no output dir given, but ledger written to %s", outcome.LedgerPath)
	}
}

func TestBacktestServiceNoMatchingSKUs(t *testing.T) {
	svc := NewBacktestService(testStore(), nil, testEngineConfig())

	if _, err := svc.Run(context.Background(), BacktestRequest{SKUs: []string{"SKU-NOPE"}}, ""); err == nil {
		t.Fatal("expected an error when no suppliers match")
	}
}
