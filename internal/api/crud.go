package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sponsorgrid/internal/db"
	"sponsorgrid/internal/models"
	"sponsorgrid/internal/placement"
)

// validateCampaign applies the shape checks that do not need storage access.
// Occupancy checks belong to the arbiter.
func validateCampaign(c *models.Campaign) error {
	if c.Name == "" {
		return &placement.ConfigError{Reason: "campaign name is required"}
	}
	if !models.ValidSlot(c.Slot) {
		return &placement.ConfigError{Reason: "unknown slot " + c.Slot}
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	if c.Status != models.StatusActive && c.Status != models.StatusPaused && c.Status != models.StatusEnded {
		return &placement.ConfigError{Reason: "unknown status " + c.Status}
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return &placement.ConfigError{Reason: "start_date and end_date are required"}
	}
	if c.EndDate.Before(c.StartDate) {
		return &placement.ConfigError{Reason: "end_date precedes start_date"}
	}
	return nil
}

// writeCampaignError maps placement and storage errors onto HTTP statuses:
// configuration problems are the client's fault (400), a taken slot or cell
// is a conflict (409), anything else is internal.
func (s *Server) writeCampaignError(w http.ResponseWriter, logger *zap.Logger, action string, c *models.Campaign, err error) {
	var capErr *placement.CapacityError
	if errors.As(err, &capErr) {
		s.Metrics.IncrementCapacityRejections(capErr.Slot)
		logger.Info("campaign rejected, slot full",
			zap.String("slot", capErr.Slot),
			zap.Int("campaign_id", c.ID))
		writeError(w, http.StatusConflict, capErr.Error())
		return
	}
	if placement.IsConfig(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	logger.Error(action+" campaign", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	cs, err := s.Campaigns.ListCampaigns(r.Context())
	if err != nil {
		s.Logger.Error("list campaigns", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, cs)
}

func (s *Server) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := s.Campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		s.Logger.Error("get campaign", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, c)
}

func (s *Server) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = 0
	now := time.Now()

	if err := validateCampaign(&c); err != nil {
		s.writeCampaignError(w, s.Logger, "create", &c, err)
		return
	}
	// Advisory pre-check; the database constraint closes the race.
	if err := s.Arbiter.Reserve(r.Context(), c, now); err != nil {
		s.writeCampaignError(w, s.Logger, "create", &c, err)
		return
	}
	if err := s.Campaigns.InsertCampaign(r.Context(), &c, now); err != nil {
		s.writeCampaignError(w, s.Logger, "create", &c, err)
		return
	}

	s.notifyUpdate("campaign", "create", c.ID)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, c)
}

func (s *Server) UpdateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = id
	now := time.Now()

	if err := validateCampaign(&c); err != nil {
		s.writeCampaignError(w, s.Logger, "update", &c, err)
		return
	}

	prev, err := s.Campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		s.writeCampaignError(w, s.Logger, "update", &c, err)
		return
	}
	// Only re-arbitrate when the edit could change what the campaign
	// occupies; pausing or touching presentation fields never conflicts.
	if placement.NeedsCheck(*prev, c, now) {
		if err := s.Arbiter.Reserve(r.Context(), c, now); err != nil {
			s.writeCampaignError(w, s.Logger, "update", &c, err)
			return
		}
	}
	if err := s.Campaigns.UpdateCampaign(r.Context(), c, now); err != nil {
		s.writeCampaignError(w, s.Logger, "update", &c, err)
		return
	}

	s.notifyUpdate("campaign", "update", id)
	writeJSON(w, c)
}

func (s *Server) DeleteCampaignHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.Campaigns.DeleteCampaign(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		s.Logger.Error("delete campaign", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.notifyUpdate("campaign", "delete", id)
	w.WriteHeader(http.StatusNoContent)
}
