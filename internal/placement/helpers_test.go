package placement

import (
	"context"
	"sort"
	"time"

	"sponsorgrid/internal/models"
)

// memSource is an in-memory CampaignSource for arbiter and selector tests.
// It applies the same eligibility rules the Postgres queries do.
type memSource struct {
	campaigns []models.Campaign
}

func (m *memSource) EligibleBySlot(_ context.Context, slot string, now time.Time) ([]models.Campaign, error) {
	var out []models.Campaign
	for _, c := range m.campaigns {
		if c.Slot == slot && c.Eligible(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memSource) FeedCellOccupant(_ context.Context, tier, cell int, now time.Time) (*models.Campaign, error) {
	for i, c := range m.campaigns {
		if c.Slot == models.SlotFeed && c.FeedTier == tier && c.TierSlot == cell && c.Eligible(now) {
			return &m.campaigns[i], nil
		}
	}
	return nil, nil
}

func activeCampaign(id int, slot string, now time.Time) models.Campaign {
	return models.Campaign{
		ID:        id,
		Slot:      slot,
		Status:    models.StatusActive,
		IsVisible: true,
		StartDate: now.AddDate(0, 0, -7),
		EndDate:   now.AddDate(0, 0, 7),
		CreatedAt: now.Add(-time.Duration(id) * time.Minute),
	}
}
