package placement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sponsorgrid/internal/models"
)

// CampaignSource is the read side of the campaign store consulted by the
// arbiter and the selector. Implementations must return only currently
// eligible campaigns (active, visible, in window at now).
type CampaignSource interface {
	// EligibleBySlot returns the eligible campaigns for slot at now,
	// newest first.
	EligibleBySlot(ctx context.Context, slot string, now time.Time) ([]models.Campaign, error)
	// FeedCellOccupant returns the eligible campaign occupying the given
	// feed cell at now, or nil when the cell is free.
	FeedCellOccupant(ctx context.Context, tier, cell int, now time.Time) (*models.Campaign, error)
}

// Arbiter validates that a campaign draft does not exceed its slot's
// concurrent occupancy or claim an occupied feed cell.
//
// The check runs at creation and at any update that flips a campaign into
// eligibility. It is advisory: two concurrent writers can both pass it, so
// the storage layer repeats it inside the write transaction under an
// advisory lock scoped to the slot or cell. Reserve itself has no side
// effects; persisting the draft is the caller's job once it returns nil.
type Arbiter struct {
	source CampaignSource
	logger *zap.Logger
}

// NewArbiter constructs an Arbiter.
func NewArbiter(source CampaignSource, logger *zap.Logger) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arbiter{source: source, logger: logger}
}

// Reserve checks draft against the slot configuration table and the current
// set of eligible campaigns. Drafts that would be ineligible at now (paused,
// hidden, or out of window) bypass the capacity check entirely: they occupy
// nothing. A draft with a nonzero ID never conflicts with its own persisted
// row, so presentation-only updates to a live campaign pass.
func (a *Arbiter) Reserve(ctx context.Context, draft models.Campaign, now time.Time) error {
	if !models.ValidSlot(draft.Slot) {
		return &ConfigError{Reason: "unknown slot " + draft.Slot}
	}

	if draft.Slot == models.SlotFeed {
		if !draft.HasFeedCoordinate() {
			return &ConfigError{Reason: "feed campaigns require a tier and cell"}
		}
	}

	if !draft.Eligible(now) {
		return nil
	}

	if draft.Slot == models.SlotFeed {
		return a.reserveFeedCell(ctx, draft, now)
	}
	return a.reserveSlot(ctx, draft, now)
}

func (a *Arbiter) reserveFeedCell(ctx context.Context, draft models.Campaign, now time.Time) error {
	occupant, err := a.source.FeedCellOccupant(ctx, draft.FeedTier, draft.TierSlot, now)
	if err != nil {
		return err
	}
	if occupant != nil && occupant.ID != draft.ID {
		a.logger.Info("feed cell reservation rejected",
			zap.Int("tier", draft.FeedTier),
			zap.Int("cell", draft.TierSlot),
			zap.Int("occupant_id", occupant.ID))
		return &CapacityError{Slot: models.SlotFeed, Tier: draft.FeedTier, Cell: draft.TierSlot}
	}
	return nil
}

func (a *Arbiter) reserveSlot(ctx context.Context, draft models.Campaign, now time.Time) error {
	limit, _ := models.SlotLimit(draft.Slot)
	current, err := a.source.EligibleBySlot(ctx, draft.Slot, now)
	if err != nil {
		return err
	}
	count := 0
	for _, c := range current {
		if c.ID != draft.ID {
			count++
		}
	}
	if count >= limit {
		a.logger.Info("slot reservation rejected",
			zap.String("slot", draft.Slot),
			zap.Int("occupied", count),
			zap.Int("limit", limit))
		return &CapacityError{Slot: draft.Slot, Limit: limit}
	}
	return nil
}

// NeedsCheck reports whether an update from prev to next requires a
// reservation check: only transitions that flip the campaign into
// eligibility, or moves of an eligible campaign to a different slot or feed
// cell, can violate capacity. Presentation-only edits and updates that keep
// the campaign ineligible bypass the arbiter.
func NeedsCheck(prev, next models.Campaign, now time.Time) bool {
	if !next.Eligible(now) {
		return false
	}
	if !prev.Eligible(now) {
		return true
	}
	return prev.Slot != next.Slot ||
		prev.FeedTier != next.FeedTier ||
		prev.TierSlot != next.TierSlot
}
