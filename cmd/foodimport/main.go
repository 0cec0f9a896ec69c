package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/sqlite"
)

type target interface {
	dataset.TxRunner
	Close() error
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to a YAML or TOML config file")
	input := flag.String("input", "", "JSON dataset to import (default dataset.path)")
	targetName := flag.String("target", "sqlite", "destination database: sqlite or postgres")
	table := flag.String("table", "", "destination table (default dataset.table)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	if *input == "" {
		*input = cfg.Dataset.Path
	}
	if *table == "" {
		*table = cfg.Dataset.Table
	}

	ds, err := dataset.LoadFile(*input)
	if err != nil {
		slog.Error("failed to read dataset", "path", *input, "error", err)
		os.Exit(1)
	}
	slog.Info("dataset read", "path", *input, "foods", ds.Len())

	var (
		db      target
		where   string
		dialect dataset.Dialect
	)
	switch *targetName {
	case "sqlite":
		var c *sqlite.Client
		if c, err = sqlite.Open(cfg.SQLite); err == nil {
			db, where = c, c.Path()
		}
		dialect = dataset.DialectSQLite
	case "postgres":
		var c *postgres.Client
		if c, err = postgres.New(cfg.Postgres); err == nil {
			db, where = c, c.Addr()
		}
		dialect = dataset.DialectPostgres
	default:
		err = fmt.Errorf("unknown target %q", *targetName)
	}
	if err != nil {
		slog.Error("failed to open target database", "target", *targetName, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := dataset.Export(ctx, db, dialect, *table, ds); err != nil {
		slog.Error("import failed", "target", *targetName, "table", *table, "error", err)
		os.Exit(1)
	}
	slog.Info("import complete",
		"target", *targetName,
		"location", where,
		"table", *table,
		"foods", ds.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
