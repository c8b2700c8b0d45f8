package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db"
	"github.com/atcoder-problems/problemsx/pkg/db/models"
	"github.com/atcoder-problems/problemsx/pkg/rankcache"
)

// Store is the read surface the query handlers depend on; *store.DB
// satisfies it.
type Store interface {
	db.RankingStore
	GetSubmissionsSince(ctx context.Context, fromSecond, limit int64) ([]models.Submission, error)
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	DB Store
	// Cache is the Redis ranking mirror; nil when Redis is unavailable,
	// in which case every rank lookup goes to Postgres.
	Cache *rankcache.Client
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Error("Failed to close cache connection", zap.Error(err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	_ = a.Server.Shutdown(shutdownCtx)
	a.Logger.Info("Query service stopped")
}
