package api

import (
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"sponsorgrid/internal/models"
	"sponsorgrid/internal/placement"
)

// slotCapacity reports how much room a count-limited slot has left.
type slotCapacity struct {
	Slot      string `json:"slot"`
	Limit     int    `json:"limit"`
	Active    int    `json:"active"`
	Remaining int    `json:"remaining"`
}

// feedCell reports the occupancy of one feed grid cell.
type feedCell struct {
	Tier     int    `json:"tier"`
	Cell     int    `json:"cell"`
	Position int    `json:"position"`
	Taken    bool   `json:"taken"`
	Campaign string `json:"campaign,omitempty"`
}

// CapacityHandler handles GET /admin/capacity: remaining headroom per
// count-limited slot plus the occupancy of all 12 feed cells, evaluated at
// the current instant.
func (s *Server) CapacityHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()

	slots := models.Slots()
	sort.Strings(slots)
	slotReport := make([]slotCapacity, 0, len(slots))
	for _, slot := range slots {
		limit, _ := models.SlotLimit(slot)
		campaigns, err := s.Campaigns.EligibleBySlot(ctx, slot, now)
		if err != nil {
			s.Logger.Error("count eligible campaigns", zap.String("slot", slot), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		remaining := limit - len(campaigns)
		if remaining < 0 {
			remaining = 0
		}
		slotReport = append(slotReport, slotCapacity{
			Slot:      slot,
			Limit:     limit,
			Active:    len(campaigns),
			Remaining: remaining,
		})
	}

	cells := make([]feedCell, 0, models.FeedTiers*models.FeedCellsPerTier)
	for tier := 1; tier <= models.FeedTiers; tier++ {
		for cell := 1; cell <= models.FeedCellsPerTier; cell++ {
			occupant, err := s.Campaigns.FeedCellOccupant(ctx, tier, cell, now)
			if err != nil {
				s.Logger.Error("check feed cell", zap.Int("tier", tier), zap.Int("cell", cell), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			fc := feedCell{Tier: tier, Cell: cell, Position: placement.Position(tier, cell)}
			if occupant != nil {
				fc.Taken = true
				fc.Campaign = occupant.Name
			}
			cells = append(cells, fc)
		}
	}

	writeJSON(w, map[string]any{"slots": slotReport, "feed": cells})
}
