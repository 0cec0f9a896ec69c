// Package postgres opens the PostgreSQL database that can hold the TACO
// table, through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/dbtx"
)

const pingTimeout = 5 * time.Second

type Client struct {
	DB   *sql.DB
	addr string
}

// New opens a pool sized from cfg and pings it once. A failed ping closes
// the pool, so callers retrying New do not leak connections.
func New(cfg config.PostgresConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres %s: open: %w", addr, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	c := &Client{DB: db, addr: addr}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres %s: ping: %w", addr, err)
	}
	return c, nil
}

func (c *Client) Addr() string { return c.addr }

func (c *Client) Ping(ctx context.Context) error { return c.DB.PingContext(ctx) }

func (c *Client) Close() error { return c.DB.Close() }

func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return dbtx.Run(ctx, c.DB, fn)
}
