package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/sqlite"
)

// Load reads the dataset from the source named in cfg.Dataset. It is meant
// to be called exactly once at startup; any error is fatal to the caller.
func Load(ctx context.Context, cfg *config.Config) (*Dataset, error) {
	log := logger.WithComponent("dataset-loader").With("source", cfg.Dataset.Source)
	start := time.Now()

	ds, err := resilience.Bounded(ctx, cfg.Dataset.LoadTimeout, "dataset load", func(ctx context.Context) (*Dataset, error) {
		switch cfg.Dataset.Source {
		case "file":
			return LoadFile(cfg.Dataset.Path)
		case "sqlite":
			return loadSQLite(ctx, cfg)
		case "postgres":
			return loadPostgres(ctx, cfg)
		default:
			return nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
		}
	})
	if err != nil {
		return nil, err
	}

	log.Info("dataset loaded",
		"foods", ds.Len(),
		"categories", len(ds.Categories()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func loadSQLite(ctx context.Context, cfg *config.Config) (*Dataset, error) {
	client, err := sqlite.Open(cfg.SQLite)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return LoadSQL(ctx, client.DB, cfg.Dataset.Table)
}

func loadPostgres(ctx context.Context, cfg *config.Config) (*Dataset, error) {
	var ds *Dataset
	err := resilience.Retry(ctx, "postgres dataset load", resilience.Backoff{Attempts: 5}, func(ctx context.Context, _ int) error {
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return err
		}
		defer client.Close()
		ds, err = LoadSQL(ctx, client.DB, cfg.Dataset.Table)
		if errors.Is(err, apperrors.ErrInvalidDataset) {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}
