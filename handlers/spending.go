package handlers

import (
	"net/http"
	"time"

	"cartmate/backend/middleware"
	"cartmate/backend/services"
)

// GetSpending returns the caller's spending rollup for the current year:
// twelve monthly totals, the parallel budget series, and the current month
// and year sums.
func GetSpending(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}

	summary, err := services.SpendingReport(r.Context(), userID, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
