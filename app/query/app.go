package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/app/query/types"
	"github.com/atcoder-problems/problemsx/pkg/db/postgres"
	"github.com/atcoder-problems/problemsx/pkg/db/store"
	"github.com/atcoder-problems/problemsx/pkg/logging"
	"github.com/atcoder-problems/problemsx/pkg/rankcache"
	"github.com/atcoder-problems/problemsx/pkg/utils"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		panic(err)
	}

	db, err := store.New(ctx, logger, postgres.PoolConfigFor("query"))
	if err != nil {
		logger.Fatal("Unable to connect to database", zap.Error(err))
	}

	var cache *rankcache.Client
	if utils.Env("REDIS_ENABLED", "true") == "true" {
		cache, err = rankcache.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Ranking cache unavailable, rank lookups fall back to database", zap.Error(err))
			cache = nil
		}
	}

	return &types.App{
		DB:     db,
		Cache:  cache,
		Logger: logger,
	}
}
