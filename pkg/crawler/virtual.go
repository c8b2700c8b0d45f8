package crawler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db"
)

// streakThreshold is how many consecutive fully-stored pages end a
// per-contest virtual crawl. Pages can shift while we read them, so a
// single fully-known page is not proof that everything newer is stored.
const streakThreshold = 3

// virtualLookbackSecond widens the running window backwards so that
// contests that just ended still get their final submissions picked up.
const virtualLookbackSecond = 120

// VirtualStore is the store capability of the virtual-contest crawl.
type VirtualStore interface {
	db.SubmissionStore
	db.ContestStore
	db.VirtualContestStore
}

// VirtualContestCrawler keeps submissions fresh for problems that are
// part of a currently running virtual contest. It walks each relevant
// contest's submission list from the newest page until it has seen
// several pages in a row whose submissions are all already stored.
type VirtualContestCrawler struct {
	store   VirtualStore
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time
	pauser  pauser
}

func NewVirtualContestCrawler(store VirtualStore, fetcher Fetcher, logger *zap.Logger, pageDelay time.Duration) *VirtualContestCrawler {
	return &VirtualContestCrawler{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		pauser:  newPauser(pageDelay),
	}
}

func (c *VirtualContestCrawler) Crawl(ctx context.Context) error {
	nowSecond := c.now().Unix()

	problemIDs, err := c.runningProblemIDs(ctx, nowSecond)
	if err != nil {
		return err
	}
	if len(problemIDs) == 0 {
		c.logger.Debug("No running virtual contests")
		return nil
	}

	contestIDs, err := c.contestsForProblems(ctx, problemIDs)
	if err != nil {
		return err
	}

	c.logger.Info("Crawling virtual contest problems",
		zap.Int("problems", len(problemIDs)),
		zap.Int("contests", len(contestIDs)))

	for _, contestID := range contestIDs {
		if crawlErr := c.crawlContest(ctx, contestID); crawlErr != nil {
			return crawlErr
		}
	}
	return nil
}

// runningProblemIDs collects the distinct problems of virtual contests
// whose windows contain now, or contained it within the lookback.
func (c *VirtualContestCrawler) runningProblemIDs(ctx context.Context, nowSecond int64) ([]string, error) {
	seen := make(map[string]struct{})
	for _, at := range []int64{nowSecond, nowSecond - virtualLookbackSecond} {
		ids, err := c.store.GetRunningVirtualContestProblems(ctx, at)
		if err != nil {
			return nil, fmt.Errorf("load running virtual contest problems: %w", err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// contestsForProblems maps problems back to the contests whose
// submission lists must be crawled to cover them.
func (c *VirtualContestCrawler) contestsForProblems(ctx context.Context, problemIDs []string) ([]string, error) {
	pairs, err := c.store.LoadContestProblems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contest problems: %w", err)
	}

	wanted := make(map[string]struct{}, len(problemIDs))
	for _, id := range problemIDs {
		wanted[id] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, pair := range pairs {
		if _, ok := wanted[pair.ProblemID]; ok {
			seen[pair.ContestID] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (c *VirtualContestCrawler) crawlContest(ctx context.Context, contestID string) error {
	fullyStoredStreak := 0

	for page := 1; ; page++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		submissions, totalPages, err := c.fetcher.FetchSubmissions(ctx, contestID, page)
		if err != nil {
			return fmt.Errorf("virtual crawl %s page %d: %w", contestID, page, err)
		}
		if len(submissions) == 0 {
			return nil
		}

		ids := make([]int64, len(submissions))
		for i := range submissions {
			ids[i] = submissions[i].ID
		}
		stored, err := c.store.CountStoredSubmissions(ctx, ids)
		if err != nil {
			return fmt.Errorf("count stored %s: %w", contestID, err)
		}

		if _, err := c.store.UpsertSubmissions(ctx, submissions); err != nil {
			return fmt.Errorf("store virtual %s: %w", contestID, err)
		}

		if stored == len(submissions) {
			fullyStoredStreak++
		} else {
			fullyStoredStreak = 0
		}

		c.logger.Debug("Crawled virtual page",
			zap.String("contest_id", contestID),
			zap.Int("page", page),
			zap.Int("already_stored", stored),
			zap.Int("streak", fullyStoredStreak))

		if fullyStoredStreak >= streakThreshold || page >= totalPages {
			return nil
		}
		if pauseErr := c.pauser.pause(ctx); pauseErr != nil {
			return pauseErr
		}
	}
}
