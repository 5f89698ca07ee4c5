package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/opsagent/reorder/internal/config"
	"github.com/opsagent/reorder/internal/dataset"
	"github.com/opsagent/reorder/internal/service"
	"github.com/opsagent/reorder/internal/storage"
	"github.com/opsagent/reorder/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "backtest",
		Usage: "Replay the reorder policy over historical sales",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest over CSV datasets and export the ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "sales",
						Usage:   "Path to the sales history CSV",
						Value:   "./data/sales_history.csv",
						EnvVars: []string{"APP_SALES_PATH"},
					},
					&cli.StringFlag{
						Name:    "suppliers",
						Usage:   "Path to the supplier config CSV",
						Value:   "./data/suppliers.csv",
						EnvVars: []string{"APP_SUPPLIERS_PATH"},
					},
					&cli.StringSliceFlag{
						Name:  "sku",
						Usage: "Limit the run to these SKUs (repeatable)",
					},
					&cli.StringFlag{
						Name:  "start",
						Usage: "First simulated date (YYYY-MM-DD), defaults to the series start",
					},
					&cli.StringFlag{
						Name:  "end",
						Usage: "Last simulated date (YYYY-MM-DD), defaults to the series end",
					},
					&cli.IntFlag{
						Name:  "window",
						Usage: "Trailing demand window in days (0 uses the configured default)",
					},
					&cli.Float64Flag{
						Name:  "z",
						Usage: "Service-level z-score (0 uses the configured default)",
					},
					&cli.StringFlag{
						Name:    "out",
						Usage:   "Directory for the ledger CSV (empty skips the file)",
						Value:   "./data/output",
						EnvVars: []string{"APP_OUTPUT_DIR"},
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Also upload the ledger to the configured object storage",
					},
				},
				Action: runBacktest,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runBacktest(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	repo, err := dataset.Open(c.String("sales"), c.String("suppliers"))
	if err != nil {
		return fmt.Errorf("failed to load datasets: %w", err)
	}

	var objects storage.ObjectStorage
	if c.Bool("upload") {
		minioClient, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("upload requested but storage is not usable: %w", err)
		}
		objects = minioClient
	}

	req := service.BacktestRequest{
		SKUs:       c.StringSlice("sku"),
		WindowDays: c.Int("window"),
		ZScore:     c.Float64("z"),
	}
	if req.Start, err = parseFlagDate(c.String("start")); err != nil {
		return err
	}
	if req.End, err = parseFlagDate(c.String("end")); err != nil {
		return err
	}

	svc := service.NewBacktestService(repo, objects, cfg.Engine)
	outcome, err := svc.Run(c.Context, req, c.String("out"))
	if err != nil {
		return err
	}

	if outcome.LedgerPath != "" {
		logger.Log.Info().Str("path", outcome.LedgerPath).Msg("Ledger written")
	}
	if outcome.ObjectKey != "" {
		logger.Log.Info().Str("key", outcome.ObjectKey).Msg("Ledger uploaded")
	}

	out := struct {
		Summaries interface{}       `json:"summaries"`
		Failures  map[string]string `json:"failures,omitempty"`
	}{
		Summaries: outcome.Report.Summaries,
		Failures:  outcome.Report.Failures,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseFlagDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return date, nil
}
