package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ReloadHandler recomputes the per-slot eligibility gauges from Postgres and
// returns the fresh counts. Campaign reads always hit storage directly, so
// reload only refreshes the observed state, not a cache.
func (s *Server) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "reload"
	const method = "POST"

	counts, err := s.RefreshGauges(r.Context(), time.Now())
	if err != nil {
		s.Logger.Error("reload failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, map[string]any{"eligible": counts})
}
