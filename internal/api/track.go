package api

import (
	"encoding/json"
	"net/http"
	"time"

	"sponsorgrid/internal/models"
)

type trackRequest struct {
	CampaignID int    `json:"campaign_id"`
	Event      string `json:"event"`
	Slot       string `json:"slot,omitempty"`
}

// TrackHandler handles POST /api/track. The write happens off the request
// path: the handler acknowledges with 202 as soon as the event is handed to
// the tracker, and a failing counter store never turns into a client error.
func (s *Server) TrackHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "track"
	const method = "POST"

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CampaignID <= 0 {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusBadRequest, "campaign_id required")
		return
	}
	if req.Event != models.EventImpression && req.Event != models.EventClick {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusBadRequest, "event must be impression or click")
		return
	}

	s.Tracker.Record(req.CampaignID, req.Event, req.Slot)

	s.Metrics.IncrementRequests(endpoint, method, "202")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "accepted"})
}
