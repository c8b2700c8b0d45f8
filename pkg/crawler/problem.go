package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/atcoder"
	"github.com/atcoder-problems/problemsx/pkg/db"
	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

const defaultContestPageDelay = 500 * time.Millisecond

// ProblemCrawler discovers contests from the public archive and fills
// in each contest's problem list. Problem lists come from the tasks
// page, which needs an authenticated session for not yet public ones.
type ProblemCrawler struct {
	store   db.ContestStore
	fetcher Fetcher
	logger  *zap.Logger
	pauser  pauser
}

func NewProblemCrawler(store db.ContestStore, fetcher Fetcher, logger *zap.Logger, pageDelay time.Duration) *ProblemCrawler {
	if pageDelay <= 0 {
		pageDelay = defaultContestPageDelay
	}
	return &ProblemCrawler{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		pauser:  newPauser(pageDelay),
	}
}

func (c *ProblemCrawler) Crawl(ctx context.Context) error {
	var errs []error

	if err := c.crawlContests(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		// Contest discovery and problem backfill are independent, a
		// failed archive fetch should not block filling known contests.
		c.logger.Error("Contest discovery failed", zap.Error(err))
		errs = append(errs, err)
	}

	if err := c.crawlProblems(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// crawlContests walks the archive pages until an empty one, then adds
// the permanent contests that never appear in the archive.
func (c *ProblemCrawler) crawlContests(ctx context.Context) error {
	var contests []models.Contest

	for page := 1; ; page++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		pageContests, err := c.fetcher.FetchContests(ctx, page)
		if err != nil {
			return fmt.Errorf("fetch contest archive page %d: %w", page, err)
		}
		if len(pageContests) == 0 {
			break
		}
		contests = append(contests, pageContests...)

		if pauseErr := c.pauser.pause(ctx); pauseErr != nil {
			return pauseErr
		}
	}

	permanent, err := c.fetcher.FetchPermanentContests(ctx)
	if err != nil {
		return fmt.Errorf("fetch permanent contests: %w", err)
	}
	contests = append(contests, permanent...)

	inserted, err := c.store.InsertContests(ctx, contests)
	if err != nil {
		return fmt.Errorf("store contests: %w", err)
	}
	c.logger.Info("Crawled contests",
		zap.Int("found", len(contests)),
		zap.Int64("new", inserted))
	return nil
}

// crawlProblems fetches the task list of every contest that has no
// known problems yet. A missing session is fatal, any other per-contest
// failure is logged and skipped so one broken page cannot stall the
// rest of the backfill.
func (c *ProblemCrawler) crawlProblems(ctx context.Context) error {
	missing, err := c.contestsWithoutProblems(ctx)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	c.logger.Info("Backfilling problems", zap.Int("contests", len(missing)))

	var skipped int
	for _, contestID := range missing {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		problems, pairs, fetchErr := c.fetcher.FetchProblems(ctx, contestID)
		if fetchErr != nil {
			if errors.Is(fetchErr, atcoder.ErrNotAuthenticated) {
				return fmt.Errorf("fetch problems for %s: %w", contestID, fetchErr)
			}
			c.logger.Warn("Skipping contest problems",
				zap.String("contest_id", contestID),
				zap.Error(fetchErr))
			skipped++
			continue
		}

		if _, storeErr := c.store.InsertProblems(ctx, problems); storeErr != nil {
			return fmt.Errorf("store problems for %s: %w", contestID, storeErr)
		}
		if _, storeErr := c.store.InsertContestProblems(ctx, pairs); storeErr != nil {
			return fmt.Errorf("store contest problems for %s: %w", contestID, storeErr)
		}
		c.logger.Debug("Stored contest problems",
			zap.String("contest_id", contestID),
			zap.Int("problems", len(problems)))

		if pauseErr := c.pauser.pause(ctx); pauseErr != nil {
			return pauseErr
		}
	}

	if skipped > 0 {
		c.logger.Warn("Problem backfill incomplete", zap.Int("skipped", skipped))
	}
	return nil
}

// contestsWithoutProblems returns contests with no contest_problems
// rows, sorted by the stable order LoadContests returns them in.
func (c *ProblemCrawler) contestsWithoutProblems(ctx context.Context) ([]string, error) {
	contests, err := c.store.LoadContests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contests: %w", err)
	}
	pairs, err := c.store.LoadContestProblems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contest problems: %w", err)
	}

	covered := make(map[string]struct{}, len(pairs))
	for _, pair := range pairs {
		covered[pair.ContestID] = struct{}{}
	}

	var missing []string
	for _, contest := range contests {
		if _, ok := covered[contest.ID]; !ok {
			missing = append(missing, contest.ID)
		}
	}
	return missing, nil
}
