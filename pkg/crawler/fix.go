package crawler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db"
)

// FixCrawler re-observes submissions whose result is still a transient
// judge placeholder. Invalid records are grouped per contest and the
// minimum invalid id becomes that contest's low-water-mark: crawling
// newest-first from page 1 may stop as soon as the mark is seen again,
// which bounds the work to the distance between the newest submission and
// the oldest pending correction.
type FixCrawler struct {
	store      db.SubmissionStore
	fetcher    Fetcher
	logger     *zap.Logger
	fromSecond int64
	pauser     pauser
}

func NewFixCrawler(store db.SubmissionStore, fetcher Fetcher, logger *zap.Logger, fromSecond int64, pageDelay time.Duration) *FixCrawler {
	return &FixCrawler{
		store:      store,
		fetcher:    fetcher,
		logger:     logger,
		fromSecond: fromSecond,
		pauser:     newPauser(pageDelay),
	}
}

func (c *FixCrawler) Crawl(ctx context.Context) error {
	invalid, err := c.store.GetInvalidResultSubmissions(ctx, c.fromSecond)
	if err != nil {
		return fmt.Errorf("load invalid submissions: %w", err)
	}

	c.logger.Info("Fixing invalid submissions",
		zap.Int64("from_second", c.fromSecond),
		zap.Int("invalid", len(invalid)))

	// Contests with no pending corrections are skipped entirely.
	lowWaterMarks := make(map[string]int64)
	for i := range invalid {
		s := &invalid[i]
		if mark, ok := lowWaterMarks[s.ContestID]; !ok || s.ID < mark {
			lowWaterMarks[s.ContestID] = s.ID
		}
	}

	contestIDs := make([]string, 0, len(lowWaterMarks))
	for contestID := range lowWaterMarks {
		contestIDs = append(contestIDs, contestID)
	}
	sort.Strings(contestIDs)

	for _, contestID := range contestIDs {
		if crawlErr := c.crawlContest(ctx, contestID, lowWaterMarks[contestID]); crawlErr != nil {
			return crawlErr
		}
	}

	return nil
}

func (c *FixCrawler) crawlContest(ctx context.Context, contestID string, lowWaterMark int64) error {
	for page := 1; ; page++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		submissions, totalPages, err := c.fetcher.FetchSubmissions(ctx, contestID, page)
		if err != nil {
			return fmt.Errorf("fix %s page %d: %w", contestID, page, err)
		}

		if _, storeErr := c.store.UpsertSubmissions(ctx, submissions); storeErr != nil {
			return fmt.Errorf("store %s page %d: %w", contestID, page, storeErr)
		}

		markSeen := false
		for i := range submissions {
			if submissions[i].ID == lowWaterMark {
				markSeen = true
				break
			}
		}

		// Either the site's reported page count caught up with the
		// iteration (end of list) or the crawl reached back to the
		// oldest pending correction.
		if totalPages <= page || markSeen {
			c.logger.Info("Fixed contest",
				zap.String("contest_id", contestID),
				zap.Int("pages", page),
				zap.Bool("mark_seen", markSeen))
			return nil
		}

		if pauseErr := c.pauser.pause(ctx); pauseErr != nil {
			return pauseErr
		}
	}
}
