package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/rankcache"
)

// userRankResponse is the payload of the /user/{metric}_rank endpoints:
// the user's metric value and their competition rank, where tied values
// share a rank.
type userRankResponse struct {
	Count int64 `json:"count"`
	Rank  int64 `json:"rank"`
}

// HandleUserAcceptedCountRank returns one user's accepted count and rank.
func (c *Controller) HandleUserAcceptedCountRank(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	count, err := c.App.DB.GetUserAcceptedCount(r.Context(), userID)
	if err != nil {
		c.App.Logger.Error("User rank query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if count == 0 {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	rank, err := c.rankOf(r, rankcache.KeyAcceptedCount, float64(count), func() (int64, error) {
		return c.App.DB.GetAcceptedCountRank(r.Context(), count)
	})
	if err != nil {
		c.App.Logger.Error("User rank query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, userRankResponse{Count: int64(count), Rank: rank})
}

// HandleUserRatedPointSumRank returns one user's rated point sum and rank.
func (c *Controller) HandleUserRatedPointSumRank(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	// A sum of 0 is a real row when every accepted problem is unrated,
	// so absence is decided by the row, not the value.
	sum, found, err := c.App.DB.GetUserRatedPointSum(r.Context(), userID)
	if err != nil {
		c.App.Logger.Error("User rank query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	rank, err := c.rankOf(r, rankcache.KeyRatedPointSum, float64(sum), func() (int64, error) {
		return c.App.DB.GetRatedPointSumRank(r.Context(), sum)
	})
	if err != nil {
		c.App.Logger.Error("User rank query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, userRankResponse{Count: sum, Rank: rank})
}

// HandleUserStreakRank returns one user's longest streak and rank.
func (c *Controller) HandleUserStreakRank(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	streak, err := c.App.DB.GetUserStreak(r.Context(), userID)
	if err != nil {
		c.App.Logger.Error("User rank query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if streak == 0 {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	rank, err := c.rankOf(r, rankcache.KeyStreak, float64(streak), func() (int64, error) {
		return c.App.DB.GetStreakRank(r.Context(), streak)
	})
	if err != nil {
		c.App.Logger.Error("User rank query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, userRankResponse{Count: streak, Rank: rank})
}

// rankOf resolves a rank from the cache when the metric's sorted set is
// warm, falling back to the database otherwise. Cache errors degrade to
// the fallback, never to the client.
func (c *Controller) rankOf(r *http.Request, key string, score float64, fallback func() (int64, error)) (int64, error) {
	if c.App.Cache != nil {
		rank, warm, err := c.App.Cache.Rank(r.Context(), key, score)
		if err != nil {
			c.App.Logger.Warn("Cache rank lookup failed", zap.String("key", key), zap.Error(err))
		} else if warm {
			return rank, nil
		}
	}
	return fallback()
}
