package crawler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db"
)

// NewContestsStore is the store capability of the new-contests crawl.
type NewContestsStore interface {
	db.SubmissionStore
	db.ContestStore
}

// NewContestsCrawler keeps the newest contests current by running a whole
// contest crawl on the N most recently started ones. Recent contests are
// where submissions still trickle in or get re-judged; older contests are
// left to the slower fix/whole cadences.
type NewContestsCrawler struct {
	store        NewContestsStore
	fetcher      Fetcher
	logger       *zap.Logger
	contestCount int
	concurrency  int
	pageDelay    time.Duration
}

func NewNewContestsCrawler(store NewContestsStore, fetcher Fetcher, logger *zap.Logger, contestCount, concurrency int, pageDelay time.Duration) *NewContestsCrawler {
	if contestCount <= 0 {
		contestCount = 5
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	return &NewContestsCrawler{
		store:        store,
		fetcher:      fetcher,
		logger:       logger,
		contestCount: contestCount,
		concurrency:  concurrency,
		pageDelay:    pageDelay,
	}
}

func (c *NewContestsCrawler) Crawl(ctx context.Context) error {
	contests, err := c.store.LoadContests(ctx)
	if err != nil {
		return fmt.Errorf("load contests: %w", err)
	}

	sort.Slice(contests, func(i, j int) bool {
		if contests[i].StartEpochSecond != contests[j].StartEpochSecond {
			return contests[i].StartEpochSecond > contests[j].StartEpochSecond
		}
		return contests[i].ID < contests[j].ID
	})
	if len(contests) > c.contestCount {
		contests = contests[:c.contestCount]
	}

	c.logger.Info("Crawling new contests", zap.Int("contests", len(contests)))

	// Contests are independent; upserts are idempotent per row, so a
	// small pool is safe. One failed contest never blocks the others.
	pool := pond.NewPool(c.concurrency)
	group := pool.NewGroupContext(ctx)

	errs := make([]error, len(contests))
	for i, contest := range contests {
		group.Submit(func() {
			whole := NewWholeContestCrawler(c.store, c.fetcher, c.logger, contest.ID, c.pageDelay)
			if crawlErr := whole.Crawl(ctx); crawlErr != nil {
				c.logger.Error("Contest crawl failed",
					zap.String("contest_id", contest.ID),
					zap.Error(crawlErr))
				errs[i] = crawlErr
			}
		})
	}
	_ = group.Wait()
	pool.StopAndWait()

	return errors.Join(errs...)
}
