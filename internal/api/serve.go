package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"sponsorgrid/internal/hydrate"
	"sponsorgrid/internal/middleware"
	"sponsorgrid/internal/models"
	"sponsorgrid/internal/placement"
)

// badgeThemes are the accent variants a sponsored card can render with. The
// pick is derived from the campaign identity so the server render and every
// client re-render agree.
var badgeThemes = []string{"amber", "violet", "teal", "rose"}

// campaignView is the public shape of a servable campaign. Internal
// scheduling fields are stripped; the theme is resolved server-side.
type campaignView struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Slot           string   `json:"slot"`
	CreativeURL    string   `json:"creative_url"`
	DestinationURL string   `json:"destination_url"`
	Description    string   `json:"description,omitempty"`
	CTALabel       string   `json:"cta_label,omitempty"`
	BadgeLabel     string   `json:"badge_label,omitempty"`
	VideoURL       string   `json:"video_url,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Theme          string   `json:"theme"`
	Position       int      `json:"position,omitempty"`
}

func toView(c models.Campaign, position int) campaignView {
	return campaignView{
		ID:             c.ID,
		Name:           c.Name,
		Slot:           c.Slot,
		CreativeURL:    c.CreativeURL,
		DestinationURL: c.DestinationURL,
		Description:    c.Description,
		CTALabel:       c.CTALabel,
		BadgeLabel:     c.BadgeLabel,
		VideoURL:       c.VideoURL,
		Categories:     c.Categories,
		Theme:          hydrate.Pick(badgeThemes, "badge:"+strconv.Itoa(c.ID), 0),
		Position:       position,
	}
}

// ActiveCampaignsHandler handles GET /api/campaigns/active?slot=NAME. It
// returns the eligible campaigns for a non-feed slot, newest first, capped at
// the slot's capacity unless a smaller limit is requested.
func (s *Server) ActiveCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "ActiveCampaignsHandler",
		trace.WithAttributes(
			attribute.String("http.method", "GET"),
			attribute.String("http.route", "/api/campaigns/active"),
		))
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)
	start := time.Now()
	const endpoint = "campaigns_active"
	const method = "GET"

	slot := r.URL.Query().Get("slot")
	if slot == "" || slot == models.SlotFeed || !models.ValidSlot(slot) {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusBadRequest, "slot must be a known non-feed slot")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	campaigns, err := placement.SelectActive(ctx, s.Campaigns, slot, time.Now(), limit)
	if err != nil {
		logger.Error("select active campaigns", zap.String("slot", slot), zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// No gauge write here: the response can be caller-capped via limit, so
	// the eligibility gauge is maintained by RefreshGauges alone.
	views := make([]campaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, toView(c, 0))
	}
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, map[string]any{"slot": slot, "campaigns": views})
}

// FeedCampaignsHandler handles GET /api/campaigns/feed: every eligible feed
// campaign with its grid position resolved from the (tier, cell) coordinate.
func (s *Server) FeedCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "FeedCampaignsHandler",
		trace.WithAttributes(
			attribute.String("http.method", "GET"),
			attribute.String("http.route", "/api/campaigns/feed"),
		))
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)
	start := time.Now()
	const endpoint = "campaigns_feed"
	const method = "GET"

	feed, err := placement.SelectActiveFeed(ctx, s.Campaigns, time.Now())
	if err != nil {
		logger.Error("select feed campaigns", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]campaignView, 0, len(feed))
	for _, fc := range feed {
		views = append(views, toView(fc.Campaign, fc.Position))
	}
	s.Metrics.SetEligibleCampaigns(models.SlotFeed, len(views))
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, map[string]any{"campaigns": views})
}

// feedPlanRequest carries the organic listings the caller wants the
// sponsored feed built around, in display order.
type feedPlanRequest struct {
	Organic []models.Listing `json:"organic"`
}

type feedPlanEntry struct {
	Listing   *models.Listing `json:"listing,omitempty"`
	Sponsored *campaignView   `json:"sponsored,omitempty"`
}

// FeedPlanHandler handles POST /api/feed/plan. It interleaves the eligible
// feed campaigns into the submitted organic listings and returns the final
// ordering. The block randomness is seeded from the listing and campaign
// identities, so replaying the same request yields the same plan and a
// client re-render cannot disagree with the server.
func (s *Server) FeedPlanHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "FeedPlanHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/api/feed/plan"),
		))
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)
	start := time.Now()
	const endpoint = "feed_plan"
	const method = "POST"

	var req feedPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	feed, err := placement.SelectActiveFeed(ctx, s.Campaigns, time.Now())
	if err != nil {
		logger.Error("select feed campaigns", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Tier-then-cell order keeps the round-robin rotation stable across
	// requests regardless of creation order.
	sort.Slice(feed, func(i, j int) bool { return feed[i].Position < feed[j].Position })
	sponsored := make([]models.Campaign, 0, len(feed))
	seeds := make([]string, 0, len(req.Organic)+len(feed))
	for _, l := range req.Organic {
		seeds = append(seeds, "listing:"+strconv.Itoa(l.ID))
	}
	for _, fc := range feed {
		sponsored = append(sponsored, fc.Campaign)
		seeds = append(seeds, "campaign:"+strconv.Itoa(fc.ID))
	}

	entries := placement.BuildFeed(req.Organic, sponsored, hydrate.SharedRand(seeds...))
	out := make([]feedPlanEntry, 0, len(entries))
	for _, e := range entries {
		if e.Sponsored != nil {
			v := toView(*e.Sponsored, 0)
			out = append(out, feedPlanEntry{Sponsored: &v})
			continue
		}
		out = append(out, feedPlanEntry{Listing: e.Listing})
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, map[string]any{"entries": out})
}
