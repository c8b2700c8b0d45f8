// Package updater wires the aggregation engine into a daemon: the delta
// path on a tight cadence, the batch repair on a slow one, and a Redis
// ranking-cache refresh after each successful pass. The cache is best
// effort; a refresh failure is logged, never fatal.
package updater

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db/postgres"
	"github.com/atcoder-problems/problemsx/pkg/db/store"
	"github.com/atcoder-problems/problemsx/pkg/logging"
	"github.com/atcoder-problems/problemsx/pkg/rankcache"
	"github.com/atcoder-problems/problemsx/pkg/updater"
	"github.com/atcoder-problems/problemsx/pkg/utils"
)

// cacheRefreshPage is how many ranking rows one cache-refresh read pulls.
const cacheRefreshPage = 10000

// App schedules the delta and batch updaters.
type App struct {
	DB    *store.DB
	Cache *rankcache.Client

	Cron   *cron.Cron
	Logger *zap.Logger
	Server *http.Server

	delta *updater.DeltaUpdater
	batch *updater.BatchUpdater
}

// Initialize builds the app from environment configuration. Redis being
// unreachable is not fatal: ranks degrade to database reads.
func Initialize(ctx context.Context) (*App, error) {
	logger, err := logging.New()
	if err != nil {
		panic(err)
	}

	db, err := store.New(ctx, logger, postgres.PoolConfigFor("updater"))
	if err != nil {
		logger.Fatal("Unable to connect to database", zap.Error(err))
	}

	cache, err := rankcache.NewClient(ctx, logger)
	if err != nil {
		logger.Warn("Ranking cache unavailable", zap.Error(err))
		cache = nil
	}

	app := &App{
		DB:     db,
		Cache:  cache,
		Logger: logger,
		delta: updater.NewDeltaUpdater(db, logger,
			utils.EnvInt64("UPDATER_RECENT_LIMIT", 1000)),
		batch: updater.NewBatchUpdater(db, logger),
	}

	if err := app.setupScheduler(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) setupScheduler(ctx context.Context) error {
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	deltaSpec := utils.Env("CRON_DELTA", "0 */5 * * * *")
	if _, err := a.Cron.AddFunc(deltaSpec, func() {
		rctx, cancel := context.WithTimeout(ctx, 4*time.Minute)
		defer cancel()
		a.runDelta(rctx)
	}); err != nil {
		return fmt.Errorf("schedule delta: %w", err)
	}

	batchSpec := utils.Env("CRON_BATCH", "0 0 */6 * * *")
	if _, err := a.Cron.AddFunc(batchSpec, func() {
		rctx, cancel := context.WithTimeout(ctx, time.Hour)
		defer cancel()
		a.runBatch(rctx)
	}); err != nil {
		return fmt.Errorf("schedule batch: %w", err)
	}

	return nil
}

func (a *App) runDelta(ctx context.Context) {
	if err := a.delta.Update(ctx); err != nil {
		a.Logger.Error("Delta update failed", zap.Error(err))
		return
	}
	a.refreshCache(ctx)
}

func (a *App) runBatch(ctx context.Context) {
	if err := a.batch.Update(ctx); err != nil {
		a.Logger.Error("Batch update failed", zap.Error(err))
		return
	}
	a.refreshCache(ctx)
}

// RunOnce runs one delta pass outside the schedule, for a warm start.
func (a *App) RunOnce(ctx context.Context) {
	a.runDelta(ctx)
}

// refreshCache mirrors the three user ranking tables into Redis sorted
// sets.
func (a *App) refreshCache(ctx context.Context) {
	if a.Cache == nil {
		return
	}

	if err := a.refreshAcceptedCounts(ctx); err != nil {
		a.Logger.Warn("Cache refresh failed", zap.String("metric", "accepted_count"), zap.Error(err))
	}
	if err := a.refreshRatedPointSums(ctx); err != nil {
		a.Logger.Warn("Cache refresh failed", zap.String("metric", "rated_point_sum"), zap.Error(err))
	}
	if err := a.refreshStreaks(ctx); err != nil {
		a.Logger.Warn("Cache refresh failed", zap.String("metric", "streak"), zap.Error(err))
	}
}

func (a *App) refreshAcceptedCounts(ctx context.Context) error {
	var entries []rankcache.Entry
	for from := 0; ; from += cacheRefreshPage {
		rows, err := a.DB.GetAcceptedCountRanking(ctx, from, from+cacheRefreshPage)
		if err != nil {
			return err
		}
		for _, row := range rows {
			entries = append(entries, rankcache.Entry{UserID: row.UserID, Score: float64(row.ProblemCount)})
		}
		if len(rows) < cacheRefreshPage {
			break
		}
	}
	return a.Cache.Replace(ctx, rankcache.KeyAcceptedCount, entries)
}

func (a *App) refreshRatedPointSums(ctx context.Context) error {
	var entries []rankcache.Entry
	for from := 0; ; from += cacheRefreshPage {
		rows, err := a.DB.GetRatedPointSumRanking(ctx, from, from+cacheRefreshPage)
		if err != nil {
			return err
		}
		for _, row := range rows {
			entries = append(entries, rankcache.Entry{UserID: row.UserID, Score: float64(row.PointSum)})
		}
		if len(rows) < cacheRefreshPage {
			break
		}
	}
	return a.Cache.Replace(ctx, rankcache.KeyRatedPointSum, entries)
}

func (a *App) refreshStreaks(ctx context.Context) error {
	var entries []rankcache.Entry
	for from := 0; ; from += cacheRefreshPage {
		rows, err := a.DB.GetStreakRanking(ctx, from, from+cacheRefreshPage)
		if err != nil {
			return err
		}
		for _, row := range rows {
			entries = append(entries, rankcache.Entry{UserID: row.UserID, Score: float64(row.Streak)})
		}
		if len(rows) < cacheRefreshPage {
			break
		}
	}
	return a.Cache.Replace(ctx, rankcache.KeyStreak, entries)
}

// SetupServer sets up the HTTP server.
func (a *App) SetupServer() {
	addr := utils.Env("ADDR", ":3003")

	r := mux.NewRouter()
	r.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })).Methods("GET")

	a.Server = &http.Server{Addr: addr, Handler: r}
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("Updater cron started")
}

// StopCron stops the cron scheduler and waits for running jobs.
func (a *App) StopCron() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
}

// Start blocks until the context is cancelled, then shuts down.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()
	_ = a.Server.Close()
	a.Logger.Info("Updater shutting down")
	a.StopCron()
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	_ = a.DB.Close()
}
