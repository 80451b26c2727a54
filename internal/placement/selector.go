package placement

import (
	"context"
	"time"

	"sponsorgrid/internal/models"
)

// defaultFeedLimit caps feed selection at the full grid: 12 cells.
const defaultFeedLimit = models.FeedTiers * models.FeedCellsPerTier

// SelectActive returns the currently eligible campaigns for slot, newest
// first. When limit is zero or negative the slot's configured capacity is
// used (12 for the feed slot). Pure read, no side effects.
//
// Eligibility follows the campaign rules: status active, visible, started,
// and not ended as of the start of the current day. The end-day lenience is
// deliberate: a campaign ending today keeps serving until midnight rather
// than vanishing mid-day.
func SelectActive(ctx context.Context, source CampaignSource, slot string, now time.Time, limit int) ([]models.Campaign, error) {
	if !models.ValidSlot(slot) {
		return nil, ErrUnknownSlot
	}
	if limit <= 0 {
		if slot == models.SlotFeed {
			limit = defaultFeedLimit
		} else {
			limit, _ = models.SlotLimit(slot)
		}
	}
	campaigns, err := source.EligibleBySlot(ctx, slot, now)
	if err != nil {
		return nil, err
	}
	if len(campaigns) > limit {
		campaigns = campaigns[:limit]
	}
	return campaigns, nil
}

// FeedCampaign pairs an eligible feed campaign with its computed 1-indexed
// grid position.
type FeedCampaign struct {
	models.Campaign
	Position int `json:"position"`
}

// SelectActiveFeed returns the eligible feed campaigns with their concrete
// grid positions already resolved from the (tier, cell) coordinate.
func SelectActiveFeed(ctx context.Context, source CampaignSource, now time.Time) ([]FeedCampaign, error) {
	campaigns, err := SelectActive(ctx, source, models.SlotFeed, now, 0)
	if err != nil {
		return nil, err
	}
	out := make([]FeedCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, FeedCampaign{Campaign: c, Position: Position(c.FeedTier, c.TierSlot)})
	}
	return out, nil
}
