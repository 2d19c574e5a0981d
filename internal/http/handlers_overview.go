package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// parseYearMonth extracts year and month from query parameters.
// Returns current year/month as defaults if not provided or invalid.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	key := overviewKey(year, month)

	if cached, ok := s.overviewCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toOverviewResponse(cached))
		return
	}

	overview, err := s.ledger.MonthOverview(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.overviewCache.Put(key, overview)
	writeJSON(w, http.StatusOK, toOverviewResponse(overview))
}
