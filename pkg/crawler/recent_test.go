package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

func TestRecentCrawlerFetchesOnlyFirstPages(t *testing.T) {
	store := newFakeStore()
	_, err := store.InsertContests(context.Background(), []models.Contest{
		{ID: "abc003", StartEpochSecond: 300},
		{ID: "abc001", StartEpochSecond: 100},
		{ID: "abc002", StartEpochSecond: 200},
	})
	require.NoError(t, err)

	fetcher := newFakeFetcher()
	fetcher.pages["abc003"] = [][]models.Submission{
		{submission(31, "abc003", "abc003_a", "u1", "AC")},
		{submission(21, "abc003", "abc003_a", "u2", "AC")},
	}
	fetcher.pages["abc002"] = [][]models.Submission{
		{submission(11, "abc002", "abc002_a", "u1", "WA")},
	}

	c := NewRecentCrawler(store, fetcher, zaptest.NewLogger(t), 2, testDelay)
	require.NoError(t, c.Crawl(context.Background()))

	// Newest contests first, page 1 only each; abc001 falls outside the
	// window and deeper pages stay untouched.
	assert.Equal(t, []string{"abc003/1", "abc002/1"}, fetcher.fetchLog())
	assert.ElementsMatch(t, []int64{31, 11}, store.storedIDs())
}

func TestRecentCrawlerSkipsUnchangedPage(t *testing.T) {
	store := newFakeStore()
	_, err := store.InsertContests(context.Background(), []models.Contest{
		{ID: "abc001", StartEpochSecond: 100},
	})
	require.NoError(t, err)

	fetcher := newFakeFetcher()
	fetcher.pages["abc001"] = [][]models.Submission{
		{submission(10, "abc001", "abc001_a", "u1", "AC")},
	}

	c := NewRecentCrawler(store, fetcher, zaptest.NewLogger(t), 1, testDelay)
	require.NoError(t, c.Crawl(context.Background()))
	require.Equal(t, 1, store.upsertCalls)

	// Same page on the next tick: nothing to write.
	require.NoError(t, c.Crawl(context.Background()))
	assert.Equal(t, 1, store.upsertCalls)

	// A fresh submission changes the page, so the write resumes.
	fetcher.pages["abc001"] = [][]models.Submission{
		{submission(50, "abc001", "abc001_a", "u2", "AC"), submission(10, "abc001", "abc001_a", "u1", "AC")},
	}
	require.NoError(t, c.Crawl(context.Background()))
	assert.Equal(t, 2, store.upsertCalls)
	assert.ElementsMatch(t, []int64{10, 50}, store.storedIDs())
}

func TestRecentCrawlerUpsertsVerdictChanges(t *testing.T) {
	store := newFakeStore()
	_, err := store.InsertContests(context.Background(), []models.Contest{
		{ID: "abc001", StartEpochSecond: 100},
	})
	require.NoError(t, err)

	fetcher := newFakeFetcher()
	fetcher.pages["abc001"] = [][]models.Submission{
		{submission(10, "abc001", "abc001_a", "u1", "WJ")},
	}

	c := NewRecentCrawler(store, fetcher, zaptest.NewLogger(t), 1, testDelay)
	require.NoError(t, c.Crawl(context.Background()))

	// Same rows, new verdict: the digest changes even though no new
	// submission id appeared.
	fetcher.pages["abc001"] = [][]models.Submission{
		{submission(10, "abc001", "abc001_a", "u1", "AC")},
	}
	require.NoError(t, c.Crawl(context.Background()))

	assert.Equal(t, 2, store.upsertCalls)
	assert.Equal(t, "AC", store.submissions[10].Result)
}
