package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db/postgres"
)

// DB is the PostgreSQL store for contests, problems, submissions and the
// materialized ranking tables.
type DB struct {
	postgres.Client
}

// New connects to PostgreSQL and ensures the schema exists.
func New(ctx context.Context, logger *zap.Logger, poolConfig *postgres.PoolConfig) (*DB, error) {
	client, err := postgres.New(ctx, logger, poolConfig)
	if err != nil {
		return nil, err
	}

	db := &DB{Client: client}
	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Close terminates the underlying PostgreSQL connection
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// InitializeDB ensures the required tables exist.
// Creates all tables in parallel for efficiency.
func (db *DB) InitializeDB(ctx context.Context) error {
	initStart := time.Now()

	initOps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"contests", db.initContests},
		{"problems", db.initProblems},
		{"contest_problems", db.initContestProblems},
		{"submissions", db.initSubmissions},
		{"accepted_count", db.initAcceptedCount},
		{"rated_point_sum", db.initRatedPointSum},
		{"max_streaks", db.initMaxStreaks},
		{"language_count", db.initLanguageCount},
		{"solver", db.initSolver},
		{"points", db.initPoints},
		{"internal_virtual_contests", db.initVirtualContests},
		{"internal_virtual_contest_items", db.initVirtualContestItems},
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(initOps))

	for _, op := range initOps {
		wg.Add(1)
		go func(name string, fn func(context.Context) error) {
			defer wg.Done()
			db.Logger.Debug("Initializing table", zap.String("table", name))
			if err := fn(ctx); err != nil {
				errChan <- fmt.Errorf("init %s: %w", name, err)
			}
		}(op.name, op.fn)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}

	db.Logger.Info("Database initialized",
		zap.Duration("duration", time.Since(initStart)))

	return nil
}
