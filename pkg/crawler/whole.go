package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db"
)

// WholeContestCrawler captures every submission of one contest. Page 1 is
// fetched first to learn the total page count, then pages are walked from
// the last (oldest submissions) back to the first: if the crawl is
// interrupted midway, the stored pages form a contiguous oldest-first
// prefix that is safe to resume without gaps.
type WholeContestCrawler struct {
	store     db.SubmissionStore
	fetcher   Fetcher
	contestID string
	logger    *zap.Logger
	pauser    pauser
}

func NewWholeContestCrawler(store db.SubmissionStore, fetcher Fetcher, logger *zap.Logger, contestID string, pageDelay time.Duration) *WholeContestCrawler {
	return &WholeContestCrawler{
		store:     store,
		fetcher:   fetcher,
		contestID: contestID,
		logger:    logger.With(zap.String("contest_id", contestID)),
		pauser:    newPauser(pageDelay),
	}
}

func (c *WholeContestCrawler) Crawl(ctx context.Context) error {
	first, maxPage, err := c.fetcher.FetchSubmissions(ctx, c.contestID, 1)
	if err != nil {
		return fmt.Errorf("crawl %s page 1: %w", c.contestID, err)
	}
	if len(first) == 0 {
		c.logger.Info("Contest has no submissions")
		return nil
	}

	c.logger.Info("Crawling whole contest", zap.Int("max_page", maxPage))

	for page := maxPage; page >= 1; page-- {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		submissions, _, fetchErr := c.fetcher.FetchSubmissions(ctx, c.contestID, page)
		if fetchErr != nil {
			// Pages already stored are a contiguous oldest-first prefix;
			// the caller decides whether to retry.
			return fmt.Errorf("crawl %s page %d: %w", c.contestID, page, fetchErr)
		}

		inserted, storeErr := c.store.UpsertSubmissions(ctx, submissions)
		if storeErr != nil {
			return fmt.Errorf("store %s page %d: %w", c.contestID, page, storeErr)
		}

		c.logger.Debug("Stored page",
			zap.Int("page", page),
			zap.Int("submissions", len(submissions)),
			zap.Int64("new", inserted))

		if page > 1 {
			if pauseErr := c.pauser.pause(ctx); pauseErr != nil {
				return pauseErr
			}
		}
	}

	c.logger.Info("Finished whole contest crawl")
	return nil
}
