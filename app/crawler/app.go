// Package crawler wires the crawl strategies into a long-running daemon:
// one cron entry per strategy, each tick bounded by a timeout, errors
// logged and retried on the next tick. Upserts are idempotent so a failed
// tick never needs cleanup.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/atcoder"
	"github.com/atcoder-problems/problemsx/pkg/crawler"
	"github.com/atcoder-problems/problemsx/pkg/db/postgres"
	"github.com/atcoder-problems/problemsx/pkg/db/store"
	"github.com/atcoder-problems/problemsx/pkg/logging"
	"github.com/atcoder-problems/problemsx/pkg/utils"
)

// App schedules the crawl strategies against one shared site client and
// database pool.
type App struct {
	DB      *store.DB
	AtCoder *atcoder.Client

	Cron   *cron.Cron
	Logger *zap.Logger

	// Server only serves liveness probes; the crawler has no API.
	Server *http.Server

	recent   *crawler.RecentCrawler
	newest   *crawler.NewContestsCrawler
	fix      *crawler.FixCrawler
	virtual  *crawler.VirtualContestCrawler
	problems *crawler.ProblemCrawler
}

// Initialize builds the app from environment configuration and connects
// to Postgres. It logs in to the site when credentials are present;
// without a session only the problem backfill is degraded.
func Initialize(ctx context.Context) (*App, error) {
	logger, err := logging.New()
	if err != nil {
		panic(err)
	}

	db, err := store.New(ctx, logger, postgres.PoolConfigFor("crawler"))
	if err != nil {
		logger.Fatal("Unable to connect to database", zap.Error(err))
	}

	site, err := atcoder.NewClient(logger, atcoder.Options{})
	if err != nil {
		return nil, fmt.Errorf("site client: %w", err)
	}

	app := &App{
		DB:      db,
		AtCoder: site,
		Logger:  logger,
	}

	if user := utils.Env("ATCODER_USER", ""); user != "" {
		if loginErr := site.Login(ctx, user, utils.Env("ATCODER_PASS", "")); loginErr != nil {
			return nil, fmt.Errorf("site login: %w", loginErr)
		}
	}

	pageDelay := time.Duration(utils.EnvInt("CRAWL_PAGE_DELAY_MS", 200)) * time.Millisecond
	app.recent = crawler.NewRecentCrawler(db, site, logger,
		utils.EnvInt("CRAWL_RECENT_CONTESTS", 3), pageDelay)
	app.newest = crawler.NewNewContestsCrawler(db, site, logger,
		utils.EnvInt("CRAWL_NEW_CONTESTS", 5),
		utils.EnvInt("CRAWL_CONCURRENCY", 2), pageDelay)
	app.virtual = crawler.NewVirtualContestCrawler(db, site, logger, pageDelay)
	app.problems = crawler.NewProblemCrawler(db, site, logger,
		time.Duration(utils.EnvInt("CRAWL_CONTEST_PAGE_DELAY_MS", 500))*time.Millisecond)

	if err := app.setupScheduler(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) setupScheduler(ctx context.Context) error {
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	jobs := []struct {
		name    string
		spec    string
		timeout time.Duration
		run     func(context.Context) error
	}{
		{"recent", utils.Env("CRON_RECENT", "0 * * * * *"), 50 * time.Second, a.crawlRecent},
		{"virtual", utils.Env("CRON_VIRTUAL", "30 * * * * *"), 50 * time.Second, a.crawlVirtual},
		{"new_contests", utils.Env("CRON_NEW_CONTESTS", "0 */10 * * * *"), 9 * time.Minute, a.crawlNewContests},
		{"fix", utils.Env("CRON_FIX", "0 30 * * * *"), 25 * time.Minute, a.crawlFix},
		{"problems", utils.Env("CRON_PROBLEMS", "0 0 * * * *"), 25 * time.Minute, a.crawlProblems},
	}

	for _, job := range jobs {
		job := job
		_, err := a.Cron.AddFunc(job.spec, func() {
			rctx, cancel := context.WithTimeout(ctx, job.timeout)
			defer cancel()
			if err := job.run(rctx); err != nil {
				a.Logger.Error("Crawl cycle failed",
					zap.String("strategy", job.name),
					zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
	}
	return nil
}

func (a *App) crawlRecent(ctx context.Context) error  { return a.recent.Crawl(ctx) }
func (a *App) crawlVirtual(ctx context.Context) error { return a.virtual.Crawl(ctx) }

func (a *App) crawlNewContests(ctx context.Context) error { return a.newest.Crawl(ctx) }

// crawlFix rebuilds the fix crawler each tick so the invalid-result
// cutoff tracks the configured window.
func (a *App) crawlFix(ctx context.Context) error {
	window := time.Duration(utils.EnvInt("CRAWL_FIX_WINDOW_HOURS", 48)) * time.Hour
	fromSecond := time.Now().Add(-window).Unix()
	fix := crawler.NewFixCrawler(a.DB, a.AtCoder, a.Logger, fromSecond, 0)
	return fix.Crawl(ctx)
}

func (a *App) crawlProblems(ctx context.Context) error {
	err := a.problems.Crawl(ctx)
	if errors.Is(err, atcoder.ErrNotAuthenticated) {
		// A dead session never recovers on its own. Crash so the operator
		// notices instead of silently skipping hidden contests forever.
		a.Logger.Fatal("Problem crawl requires a valid session", zap.Error(err))
	}
	return err
}

// SetupServer sets up the HTTP server.
func (a *App) SetupServer() {
	addr := utils.Env("ADDR", ":3001")

	r := mux.NewRouter()
	r.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })).Methods("GET")

	a.Server = &http.Server{Addr: addr, Handler: r}
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("Crawler cron started")
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
	a.Logger.Info("Crawler shutting down")
	a.StopCron()
	_ = a.DB.Close()
}
