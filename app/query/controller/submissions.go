package controller

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// submissionStreamLimit bounds one time-based read; clients resume from
// the epoch second of the last row they received.
const submissionStreamLimit = 1000

// HandleSubmissionsFrom returns submissions observed at or after the
// given epoch second, oldest first.
func (c *Controller) HandleSubmissionsFrom(w http.ResponseWriter, r *http.Request) {
	fromSecond, err := strconv.ParseInt(mux.Vars(r)["epoch"], 10, 64)
	if err != nil || fromSecond < 0 {
		writeError(w, http.StatusBadRequest, "invalid epoch second")
		return
	}

	rows, err := c.App.DB.GetSubmissionsSince(r.Context(), fromSecond, submissionStreamLimit)
	if err != nil {
		c.App.Logger.Error("Submission stream query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
