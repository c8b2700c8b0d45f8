package controller

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// maxRangeSize bounds one ranking read. Clients page with from/to.
const maxRangeSize = 1000

type rankRange struct {
	From int
	To   int
}

// parseRankRange validates the half-open [from, to) window of a ranking
// request.
func parseRankRange(r *http.Request) (rankRange, bool) {
	qs := r.URL.Query()

	from, err := strconv.Atoi(qs.Get("from"))
	if err != nil || from < 0 {
		return rankRange{}, false
	}
	to, err := strconv.Atoi(qs.Get("to"))
	if err != nil || to < from || to-from > maxRangeSize {
		return rankRange{}, false
	}
	return rankRange{From: from, To: to}, true
}

// HandleAcceptedCountRanking returns the [from, to) slice of the
// accepted-count ranking, ordered by count descending, user id ascending.
func (c *Controller) HandleAcceptedCountRanking(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRankRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}

	rows, err := c.App.DB.GetAcceptedCountRanking(r.Context(), rng.From, rng.To)
	if err != nil {
		c.App.Logger.Error("Ranking query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleRatedPointSumRanking returns the [from, to) slice of the rated
// point sum ranking.
func (c *Controller) HandleRatedPointSumRanking(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRankRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}

	rows, err := c.App.DB.GetRatedPointSumRanking(r.Context(), rng.From, rng.To)
	if err != nil {
		c.App.Logger.Error("Ranking query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleStreakRanking returns the [from, to) slice of the streak ranking.
func (c *Controller) HandleStreakRanking(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRankRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}

	rows, err := c.App.DB.GetStreakRanking(r.Context(), rng.From, rng.To)
	if err != nil {
		c.App.Logger.Error("Ranking query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleLanguageRanking returns the [from, to) slice of one language's
// accepted-count ranking.
func (c *Controller) HandleLanguageRanking(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRankRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}
	language := r.URL.Query().Get("language")
	if language == "" {
		writeError(w, http.StatusBadRequest, "missing language")
		return
	}

	rows, err := c.App.DB.GetLanguageRanking(r.Context(), language, rng.From, rng.To)
	if err != nil {
		c.App.Logger.Error("Ranking query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleLanguageList returns every simplified language that appears in
// the language ranking.
func (c *Controller) HandleLanguageList(w http.ResponseWriter, r *http.Request) {
	languages, err := c.App.DB.GetLanguages(r.Context())
	if err != nil {
		c.App.Logger.Error("Language list query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, languages)
}

// HandleSolverCounts returns the per-problem distinct solver counts.
func (c *Controller) HandleSolverCounts(w http.ResponseWriter, r *http.Request) {
	rows, err := c.App.DB.GetSolverCounts(r.Context())
	if err != nil {
		c.App.Logger.Error("Solver count query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleProblemPoints returns the per-problem estimated points.
func (c *Controller) HandleProblemPoints(w http.ResponseWriter, r *http.Request) {
	rows, err := c.App.DB.GetProblemPoints(r.Context())
	if err != nil {
		c.App.Logger.Error("Problem point query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
