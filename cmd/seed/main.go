package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/opsagent/reorder/internal/cache"
	"github.com/opsagent/reorder/internal/config"
	"github.com/opsagent/reorder/internal/dataset"
	"github.com/opsagent/reorder/internal/repository/postgres"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Generate sample datasets and load them into the database",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Write sample sales_history.csv and suppliers.csv",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output directory",
						Value: "./data",
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Days of history to generate",
						Value: 90,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Random seed (0 uses the current time)",
					},
				},
				Action: runGenerate,
			},
			{
				Name:  "load",
				Usage: "Load the CSV datasets into Postgres",
				Flags: []cli.Flag{
					newDBURLFlag(),
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
				},
				Action: runLoad,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type sampleSKU struct {
	sku        string
	meanDemand float64
	leadTime   int
	packSize   int
	current    float64
	target     float64
}

var sampleSKUs = []sampleSKU{
	{"SKU-A", 10, 7, 6, 35, 150},
	{"SKU-B", 3, 14, 12, 10, 200},
	{"SKU-C", 8, 3, 1, 60, 120},
	{"SKU-D", 1, 21, 24, 5, 300},
	{"SKU-E", 5, 10, 10, 80, 100},
	{"SKU-F", 12, 5, 1, 20, 180},
}

func runGenerate(c *cli.Context) error {
	outDir := c.String("out")
	days := c.Int("days")
	if days < 1 {
		return fmt.Errorf("days must be >= 1")
	}

	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	salesPath := filepath.Join(outDir, "sales_history.csv")
	if err := writeSampleSales(salesPath, days, rng); err != nil {
		return err
	}

	suppliersPath := filepath.Join(outDir, "suppliers.csv")
	if err := writeSampleSuppliers(suppliersPath); err != nil {
		return err
	}

	log.Println("Generated:")
	log.Println(" -", salesPath)
	log.Println(" -", suppliersPath)
	return nil
}

// writeSampleSales emits noisy but plausible daily demand: gaussian
// around each SKU's mean, with an occasional demand spike so the
// volatility handling has something to chew on.
func writeSampleSales(path string, days int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "sku", "qty_sold"}); err != nil {
		return err
	}

	start := time.Now().UTC().AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		for _, s := range sampleSKUs {
			stddev := math.Max(1, s.meanDemand*0.35)
			base := math.Max(0, math.Floor(s.meanDemand+rng.NormFloat64()*stddev))
			qty := base
			if rng.Float64() < 0.03 {
				qty += math.Floor(base * (2 + rng.Float64()*3))
			}
			row := []string{date, s.sku, strconv.Itoa(int(qty))}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	return w.Error()
}

func writeSampleSuppliers(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"sku", "lead_time_days", "pack_size", "current_stock", "target_stock"}); err != nil {
		return err
	}

	for _, s := range sampleSKUs {
		row := []string{
			s.sku,
			strconv.Itoa(s.leadTime),
			strconv.Itoa(s.packSize),
			strconv.FormatFloat(s.current, 'f', -1, 64),
			strconv.FormatFloat(s.target, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func runLoad(c *cli.Context) error {
	raw, err := dataset.LoadSales(c.String("sales"))
	if err != nil {
		return fmt.Errorf("failed to load sales CSV: %w", err)
	}
	// One row per SKU per day keeps the (sku, date) primary key happy
	// even when the CSV carries multiple transactions per day.
	sales := dataset.AggregateDaily(raw)
	suppliers, err := dataset.LoadSuppliers(c.String("suppliers"))
	if err != nil {
		return fmt.Errorf("failed to load suppliers CSV: %w", err)
	}

	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	log.Println("Starting database seeding...")

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := createTables(ctx, tx); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `TRUNCATE sales_history, suppliers`); err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}

		for _, rec := range sales {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sales_history (sku, date, qty_sold) VALUES ($1, $2, $3)`,
				rec.SKU, rec.Date, rec.UnitsSold,
			); err != nil {
				return fmt.Errorf("failed to insert sales row: %w", err)
			}
		}

		for _, sup := range suppliers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO suppliers (sku, lead_time_days, pack_size, current_stock, target_stock)
				 VALUES ($1, $2, $3, $4, $5)`,
				sup.SKU, sup.LeadTimeDays, sup.PackSize, sup.CurrentStock, sup.TargetStock,
			); err != nil {
				return fmt.Errorf("failed to insert supplier row: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Database seeding completed: %d sales rows, %d suppliers", len(sales), len(suppliers))

	invalidateRecommendationCache(ctx)
	return nil
}

// invalidateRecommendationCache drops memoized recommendations after a
// reload: they were computed against the old data and would otherwise
// linger until their TTL.
func invalidateRecommendationCache(ctx context.Context) {
	cfg := config.Load()
	if !cfg.Cache.Enabled {
		return
	}

	recCache, err := cache.NewRecommendationCache(cfg.Cache)
	if err != nil {
		log.Printf("warning: cache not reachable, stale recommendations persist until TTL: %v", err)
		return
	}
	if err := recCache.InvalidateAll(ctx); err != nil {
		log.Printf("warning: cache invalidation failed: %v", err)
		return
	}
	log.Println("Recommendation cache invalidated")
}

func createTables(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sales_history (
			sku TEXT NOT NULL,
			date DATE NOT NULL,
			qty_sold DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (sku, date)
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			sku TEXT PRIMARY KEY,
			lead_time_days INTEGER NOT NULL,
			pack_size INTEGER NOT NULL DEFAULT 1,
			current_stock DOUBLE PRECISION NOT NULL,
			target_stock DOUBLE PRECISION NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}
