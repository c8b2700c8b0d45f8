// Package crawler implements the crawl strategies that decide what to
// fetch from the remote site and when to stop. Strategies consume the
// Fetcher capability and the narrow store interfaces, so their
// termination logic is testable without network or database access.
package crawler

import (
	"context"
	"time"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// Fetcher is the remote-site capability. A page is all-or-nothing: either
// the full page with the site's reported total page count, or an error.
type Fetcher interface {
	FetchSubmissions(ctx context.Context, contestID string, page int) ([]models.Submission, int, error)
	FetchContests(ctx context.Context, page int) ([]models.Contest, error)
	FetchPermanentContests(ctx context.Context) ([]models.Contest, error)
	FetchProblems(ctx context.Context, contestID string) ([]models.Problem, []models.ContestProblem, error)
}

// defaultPageDelay is the fixed pause between successive page fetches.
// Deliberate backpressure against the site's rate limits, not incidental.
const defaultPageDelay = 200 * time.Millisecond

// pauser waits the inter-page delay, honoring cancellation. Strategies
// only check cancellation at page boundaries so a page's upsert is never
// torn.
type pauser struct {
	delay time.Duration
}

func newPauser(delay time.Duration) pauser {
	if delay <= 0 {
		delay = defaultPageDelay
	}
	return pauser{delay: delay}
}

func (p pauser) pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
		return nil
	}
}
