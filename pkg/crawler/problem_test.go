package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atcoder-problems/problemsx/pkg/atcoder"
	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

func TestProblemCrawlerDiscoversContestsAndBackfillsProblems(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.contestPages = [][]models.Contest{
		{{ID: "abc001", StartEpochSecond: 100, Title: "ABC 001", RateChange: "-"}},
		{{ID: "abc002", StartEpochSecond: 200, Title: "ABC 002", RateChange: "All"}},
	}
	fetcher.permanent = []models.Contest{
		{ID: "practice", Title: "practice contest", RateChange: "-"},
	}
	for _, contestID := range []string{"abc001", "abc002", "practice"} {
		fetcher.problems[contestID] = []models.Problem{
			{ID: contestID + "_a", ContestID: contestID, Title: "A. Problem"},
		}
		fetcher.problemPairs[contestID] = []models.ContestProblem{
			{ContestID: contestID, ProblemID: contestID + "_a", ProblemIndex: "A"},
		}
	}
	store := newFakeStore()

	c := NewProblemCrawler(store, fetcher, zaptest.NewLogger(t), testDelay)
	require.NoError(t, c.Crawl(context.Background()))

	assert.Len(t, store.contests, 3)
	assert.Len(t, store.problems, 3)
	assert.Len(t, store.pairs, 3)
	// The archive walk stops on the first empty page.
	assert.Contains(t, fetcher.fetchLog(), "archive/3")
	assert.NotContains(t, fetcher.fetchLog(), "archive/4")
}

func TestProblemCrawlerSkipsContestsWithKnownProblems(t *testing.T) {
	store := newFakeStore()
	_, err := store.InsertContests(context.Background(), []models.Contest{
		{ID: "abc001", StartEpochSecond: 100},
	})
	require.NoError(t, err)
	_, err = store.InsertContestProblems(context.Background(), []models.ContestProblem{
		{ContestID: "abc001", ProblemID: "abc001_a", ProblemIndex: "A"},
	})
	require.NoError(t, err)

	fetcher := newFakeFetcher()

	c := NewProblemCrawler(store, fetcher, zaptest.NewLogger(t), testDelay)
	require.NoError(t, c.Crawl(context.Background()))

	assert.NotContains(t, fetcher.fetchLog(), "tasks/abc001")
}

func TestProblemCrawlerMissingSessionIsFatal(t *testing.T) {
	store := newFakeStore()
	_, err := store.InsertContests(context.Background(), []models.Contest{
		{ID: "abc001", StartEpochSecond: 100},
	})
	require.NoError(t, err)

	fetcher := newFakeFetcher()
	fetcher.problemErrs["abc001"] = atcoder.ErrNotAuthenticated

	c := NewProblemCrawler(store, fetcher, zaptest.NewLogger(t), testDelay)
	err = c.Crawl(context.Background())
	require.ErrorIs(t, err, atcoder.ErrNotAuthenticated)
}

func TestProblemCrawlerIsolatesBrokenTaskPages(t *testing.T) {
	store := newFakeStore()
	_, err := store.InsertContests(context.Background(), []models.Contest{
		{ID: "abc001", StartEpochSecond: 100},
		{ID: "abc002", StartEpochSecond: 200},
	})
	require.NoError(t, err)

	fetcher := newFakeFetcher()
	fetcher.problemErrs["abc001"] = errors.New("boom")
	fetcher.problems["abc002"] = []models.Problem{
		{ID: "abc002_a", ContestID: "abc002", Title: "A. Problem"},
	}
	fetcher.problemPairs["abc002"] = []models.ContestProblem{
		{ContestID: "abc002", ProblemID: "abc002_a", ProblemIndex: "A"},
	}

	c := NewProblemCrawler(store, fetcher, zaptest.NewLogger(t), testDelay)
	require.NoError(t, c.Crawl(context.Background()))

	assert.Len(t, store.problems, 1)
}
