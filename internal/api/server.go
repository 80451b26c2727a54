package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"sponsorgrid/internal/analytics"
	"sponsorgrid/internal/config"
	"sponsorgrid/internal/db"
	"sponsorgrid/internal/models"
	"sponsorgrid/internal/observability"
	"sponsorgrid/internal/placement"
	"sponsorgrid/internal/tracking"
)

var tracer = otel.Tracer("sponsorgrid")

// CampaignStore is the persistence surface the handlers need. *db.Postgres
// implements it; tests substitute an in-memory store.
type CampaignStore interface {
	placement.CampaignSource
	GetCampaign(ctx context.Context, id int) (*models.Campaign, error)
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	InsertCampaign(ctx context.Context, c *models.Campaign, now time.Time) error
	UpdateCampaign(ctx context.Context, c models.Campaign, now time.Time) error
	DeleteCampaign(ctx context.Context, id int) error
	ClicksSince(ctx context.Context, campaignID int, since time.Time) (int64, error)
}

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger    *zap.Logger
	Campaigns CampaignStore
	Store     *db.RedisStore
	Analytics analytics.Service
	Tracker   *tracking.Tracker
	Arbiter   *placement.Arbiter
	Metrics   observability.MetricsRegistry
	Config    config.Config
}

// NewServer constructs a Server. The arbiter is derived from the campaign
// store so write handlers and reads see the same eligibility rules.
func NewServer(logger *zap.Logger, campaigns CampaignStore, store *db.RedisStore, sink analytics.Service, tracker *tracking.Tracker, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:    logger,
		Campaigns: campaigns,
		Store:     store,
		Analytics: sink,
		Tracker:   tracker,
		Arbiter:   placement.NewArbiter(campaigns, logger),
		Metrics:   metrics,
		Config:    cfg,
	}
}

// UpdateMessage is published on db.UpdateChannel whenever a mutation lands,
// so edge caches and other replicas can invalidate.
type UpdateMessage struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     any    `json:"id"`
}

func (s *Server) notifyUpdate(entity, action string, id any) {
	if s.Store == nil || s.Store.Client == nil {
		s.Logger.Warn("redis store not available, skipping update notification")
		return
	}
	payload, err := json.Marshal(UpdateMessage{Entity: entity, Action: action, ID: id})
	if err != nil {
		s.Logger.Error("failed to marshal update message", zap.Error(err))
		return
	}
	if err := s.Store.PublishUpdate(payload); err != nil {
		s.Logger.Error("failed to publish update message", zap.Error(err))
	}
}

// RefreshGauges recomputes the eligible-campaign gauge for every slot.
// Called from the reload endpoint and the background refresh ticker.
func (s *Server) RefreshGauges(ctx context.Context, now time.Time) (map[string]int, error) {
	counts := make(map[string]int)
	slots := append(models.Slots(), models.SlotFeed)
	for _, slot := range slots {
		campaigns, err := s.Campaigns.EligibleBySlot(ctx, slot, now)
		if err != nil {
			return nil, err
		}
		counts[slot] = len(campaigns)
		s.Metrics.SetEligibleCampaigns(slot, len(campaigns))
	}
	return counts, nil
}

// writeJSON writes v as a JSON response body.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
