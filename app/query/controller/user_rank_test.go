package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atcoder-problems/problemsx/app/query/types"
)

func newTestController(t *testing.T, store *fakeStore) *Controller {
	t.Helper()
	return NewController(&types.App{
		DB:     store,
		Logger: zaptest.NewLogger(t),
	})
}

func decodeRank(t *testing.T, rec *httptest.ResponseRecorder) userRankResponse {
	t.Helper()
	var resp userRankResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestUserRatedPointSumRankZeroSumIsServed(t *testing.T) {
	store := newStoreFake()
	store.pointSums["rated_user"] = 300
	// Every accepted problem unrated: the row exists with a sum of 0.
	store.pointSums["unrated_only"] = 0

	c := newTestController(t, store)
	req := httptest.NewRequest(http.MethodGet, "/atcoder-api/v3/user/rated_point_sum_rank?user=unrated_only", nil)
	rec := httptest.NewRecorder()
	c.HandleUserRatedPointSumRank(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeRank(t, rec)
	assert.Equal(t, int64(0), resp.Count)
	assert.Equal(t, int64(2), resp.Rank)
}

func TestUserRatedPointSumRankUnknownUser(t *testing.T) {
	store := newStoreFake()
	store.pointSums["rated_user"] = 300

	c := newTestController(t, store)
	req := httptest.NewRequest(http.MethodGet, "/atcoder-api/v3/user/rated_point_sum_rank?user=nobody", nil)
	rec := httptest.NewRecorder()
	c.HandleUserRatedPointSumRank(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserAcceptedCountRankTiesShareRank(t *testing.T) {
	store := newStoreFake()
	store.acceptedCounts["alice"] = 5
	store.acceptedCounts["bob"] = 5
	store.acceptedCounts["carol"] = 9

	c := newTestController(t, store)
	for _, user := range []string{"alice", "bob"} {
		req := httptest.NewRequest(http.MethodGet, "/atcoder-api/v3/user/ac_rank?user="+user, nil)
		rec := httptest.NewRecorder()
		c.HandleUserAcceptedCountRank(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeRank(t, rec)
		assert.Equal(t, int64(5), resp.Count)
		assert.Equal(t, int64(2), resp.Rank, "tied users share the rank below the leader")
	}
}

func TestUserStreakRankMonotonic(t *testing.T) {
	store := newStoreFake()
	store.streaks["long"] = 30
	store.streaks["mid"] = 10
	store.streaks["short"] = 3

	c := newTestController(t, store)
	var prev int64
	for _, user := range []string{"long", "mid", "short"} {
		req := httptest.NewRequest(http.MethodGet, "/atcoder-api/v3/user/streak_rank?user="+user, nil)
		rec := httptest.NewRecorder()
		c.HandleUserStreakRank(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeRank(t, rec)
		assert.Greater(t, resp.Rank, prev, "a smaller streak never outranks a larger one")
		prev = resp.Rank
	}
}

func TestUserRankMissingUserParam(t *testing.T) {
	c := newTestController(t, newStoreFake())
	req := httptest.NewRequest(http.MethodGet, "/atcoder-api/v3/user/ac_rank", nil)
	rec := httptest.NewRecorder()
	c.HandleUserAcceptedCountRank(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
