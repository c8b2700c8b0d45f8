package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/retry"
	"github.com/atcoder-problems/problemsx/pkg/utils"
)

// Executor is an interface that both *pgxpool.Pool and pgx.Tx implement.
// This allows store methods to work with either a connection pool or a
// transaction.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Client wraps a PostgreSQL connection pool and provides helper methods
type Client struct {
	Logger *zap.Logger
	Pool   *pgxpool.Pool
}

// PoolConfig defines connection pool settings for a component.
type PoolConfig struct {
	MinConns        int32
	MaxConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Component       string
}

// PoolConfigFor returns pool settings per component. The crawler holds few
// long-lived connections; the updater runs wide upsert batches.
func PoolConfigFor(component string) *PoolConfig {
	cfg := &PoolConfig{
		MinConns:        2,
		MaxConns:        10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		Component:       component,
	}
	switch component {
	case "crawler":
		cfg.MaxConns = 5
	case "updater":
		cfg.MaxConns = 20
	case "query":
		cfg.MaxConns = 30
	}
	return cfg
}

// New initializes a PostgreSQL client from the SQL_URL environment
// variable, retrying the initial connection with backoff.
func New(ctx context.Context, logger *zap.Logger, poolConfig *PoolConfig) (client Client, err error) {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	client.Logger = logger
	retryConfig := retry.DefaultConfig()

	dbURL := utils.Env("SQL_URL", "postgres://localhost:5432/atcoder")

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Client{}, fmt.Errorf("failed to parse SQL_URL: %w", err)
	}

	poolConf := poolConfig
	if poolConf == nil {
		poolConf = PoolConfigFor("unknown")
	}

	config.MinConns = poolConf.MinConns
	config.MaxConns = poolConf.MaxConns
	config.MaxConnLifetime = poolConf.ConnMaxLifetime
	config.MaxConnIdleTime = poolConf.ConnMaxIdleTime

	retryErr := retry.WithBackoff(connCtx, retryConfig, logger, "postgres_connection", func() error {
		pool, openErr := pgxpool.NewWithConfig(connCtx, config)
		if openErr != nil {
			return fmt.Errorf("failed to create postgres connection pool: %w", openErr)
		}

		client.Pool = pool

		pingErr := pool.Ping(connCtx)
		if pingErr != nil {
			pool.Close()
			return fmt.Errorf("failed to ping postgres: %w", pingErr)
		}

		logger.Info("PostgreSQL connection pool configured",
			zap.String("component", poolConf.Component),
			zap.Int32("min_conns", poolConf.MinConns),
			zap.Int32("max_conns", poolConf.MaxConns),
		)

		return nil
	})

	if retryErr != nil {
		return Client{}, retryErr
	}

	return client, nil
}

// Exec executes a query without returning any rows
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := c.Pool.Exec(ctx, query, args...)
	return err
}

// Query executes a query that returns rows
// IMPORTANT: Caller MUST call rows.Close() when done to release the connection
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error) {
	return c.Pool.Query(ctx, query, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (c *Client) QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row {
	return c.Pool.QueryRow(ctx, query, args...)
}

// Begin starts a new transaction
func (c *Client) Begin(ctx context.Context) (pgx.Tx, error) {
	return c.Pool.Begin(ctx)
}

// BeginFunc executes a function within a transaction; rollback on error,
// commit otherwise.
func (c *Client) BeginFunc(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, c.Pool, fn)
}

// SendBatch sends a batch of queries
func (c *Client) SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	return c.Pool.SendBatch(ctx, batch)
}

// Ping verifies the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

// Close closes the connection pool
func (c *Client) Close() {
	c.Pool.Close()
}

// IsNoRows checks if the error is a "no rows" error
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
