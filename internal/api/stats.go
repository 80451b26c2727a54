package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sponsorgrid/internal/db"
	"sponsorgrid/internal/models"
)

const statsWindow = 7 * 24 * time.Hour

type campaignStats struct {
	CampaignID       int    `json:"campaign_id"`
	Name             string `json:"name"`
	Impressions      int64  `json:"impressions"`
	Clicks           int64  `json:"clicks"`
	ImpressionsToday int64  `json:"impressions_today"`
	ClicksToday      int64  `json:"clicks_today"`
	Clicks7d         int64  `json:"clicks_7d"`
}

// StatsHandler handles GET /admin/campaigns/{id}/stats. All-time totals come
// from the denormalized campaign counters, today's activity from the Redis
// daily keys, and the 7-day click count from the analytics warehouse with the
// click_events table as the fallback when the warehouse is down.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx := r.Context()

	c, err := s.Campaigns.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		s.Logger.Error("get campaign", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	stats := campaignStats{
		CampaignID:  c.ID,
		Name:        c.Name,
		Impressions: c.Impressions,
		Clicks:      c.Clicks,
	}

	now := time.Now()
	if s.Store != nil {
		stats.ImpressionsToday = s.Store.DailyCount(id, models.EventImpression, now)
		stats.ClicksToday = s.Store.DailyCount(id, models.EventClick, now)
	}

	since := now.Add(-statsWindow)
	if s.Analytics != nil {
		n, chErr := s.Analytics.ClicksSince(ctx, id, since)
		if chErr == nil {
			stats.Clicks7d = n
			writeJSON(w, stats)
			return
		}
		s.Logger.Warn("analytics clicks query failed, falling back to postgres", zap.Error(chErr))
	}
	n, err := s.Campaigns.ClicksSince(ctx, id, since)
	if err != nil {
		s.Logger.Error("count recent clicks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	stats.Clicks7d = n
	writeJSON(w, stats)
}
