package server

import (
	"net/http"
	"strconv"
	"strings"
)

// handleDashboardTape handles GET /api/dashboard/tape. Public: the ticker
// tape renders on the landing page before login.
func (s *Server) handleDashboardTape(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": s.dashboard.Tape(r.Context()),
	})
}

// handleDashboardMovers handles GET /api/dashboard/movers. An optional
// ?symbols=A,B,C overrides the default candidate pool.
func (s *Server) handleDashboardMovers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, sym := range strings.Split(raw, ",") {
			if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"movers": s.dashboard.WeeklyMovers(r.Context(), symbols),
	})
}

// handleDashboardNews handles GET /api/dashboard/news.
func (s *Server) handleDashboardNews(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 6
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 20 {
			limit = n
		}
	}

	articles, err := s.dashboard.Headlines(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
	})
}
