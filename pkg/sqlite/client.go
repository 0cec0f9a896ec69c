// Package sqlite opens the pure-Go SQLite database used as a dataset source.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/dbtx"
)

type Client struct {
	DB   *sql.DB
	path string
}

// Open opens (creating if needed) the database at cfg.Path.
func Open(cfg config.SQLiteConfig) (*Client, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", cfg.Path, err)
	}
	// a single writer connection avoids SQLITE_BUSY during export
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database %s: %w", cfg.Path, err)
	}
	return &Client{DB: db, path: cfg.Path}, nil
}

func (c *Client) Path() string { return c.path }

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return dbtx.Run(ctx, c.DB, fn)
}
