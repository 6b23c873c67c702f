package server

import (
	"net/http"
	"strconv"
)

const defaultRecentLimit = 20

func handleRecentOutcomes(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRecentLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 200 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
				return
			}
			limit = n
		}

		rows, err := store.RecentOutcomes(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if rows == nil {
			rows = []OutcomeRow{}
		}
		writeJSON(w, http.StatusOK, rows)
	}
}
