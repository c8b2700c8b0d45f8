package crawler

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db"
	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// RecentStore is the store capability of the recent crawl.
type RecentStore interface {
	db.SubmissionStore
	db.ContestStore
}

// RecentCrawler optimizes for freshness over completeness: only page 1
// (the newest submissions) of the most recently started contests is
// fetched, on a short interval. Anything missed deeper in the list is
// backfilled later by the whole/new-contests crawls.
type RecentCrawler struct {
	store        RecentStore
	fetcher      Fetcher
	logger       *zap.Logger
	contestCount int
	pauser       pauser

	// pageStates remembers a digest of the last page 1 seen per contest
	// across ticks. An unchanged page carries no new rows and no verdict
	// changes, so its upsert is skipped.
	pageStates *xsync.Map[string, string]
}

func NewRecentCrawler(store RecentStore, fetcher Fetcher, logger *zap.Logger, contestCount int, pageDelay time.Duration) *RecentCrawler {
	if contestCount <= 0 {
		contestCount = 3
	}
	return &RecentCrawler{
		store:        store,
		fetcher:      fetcher,
		logger:       logger,
		contestCount: contestCount,
		pauser:       newPauser(pageDelay),
		pageStates:   xsync.NewMap[string, string](),
	}
}

// pageDigest captures everything a re-upsert could change: the row set,
// the verdicts, and the points.
func pageDigest(submissions []models.Submission) string {
	var b strings.Builder
	for i := range submissions {
		b.WriteString(strconv.FormatInt(submissions[i].ID, 10))
		b.WriteByte(':')
		b.WriteString(submissions[i].Result)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(submissions[i].Point, 'f', -1, 64))
		b.WriteByte(';')
	}
	return b.String()
}

func (c *RecentCrawler) Crawl(ctx context.Context) error {
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

	for i, contest := range contests {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		submissions, _, fetchErr := c.fetcher.FetchSubmissions(ctx, contest.ID, 1)
		if fetchErr != nil {
			return fmt.Errorf("recent crawl %s: %w", contest.ID, fetchErr)
		}

		digest := pageDigest(submissions)
		previous, seen := c.pageStates.LoadAndStore(contest.ID, digest)
		if seen && previous == digest {
			c.logger.Debug("Recent page unchanged", zap.String("contest_id", contest.ID))
		} else {
			inserted, storeErr := c.store.UpsertSubmissions(ctx, submissions)
			if storeErr != nil {
				return fmt.Errorf("store recent %s: %w", contest.ID, storeErr)
			}
			c.logger.Info("Crawled recent page",
				zap.String("contest_id", contest.ID),
				zap.Int("submissions", len(submissions)),
				zap.Int64("new", inserted))
		}

		if i < len(contests)-1 {
			if pauseErr := c.pauser.pause(ctx); pauseErr != nil {
				return pauseErr
			}
		}
	}

	return nil
}
