package models

import (
	"testing"
	"time"
)

func TestSlotLimit(t *testing.T) {
	cases := []struct {
		slot  string
		limit int
		ok    bool
	}{
		{SlotTopBanner, 2, true},
		{SlotHomepageHero, 1, true},
		{SlotNavbarCTA, 1, true},
		{SlotJoinCTA, 1, true},
		{SlotFilterCTA, 1, true},
		{SlotFeed, 0, false},
		{"sidebar", 0, false},
	}
	for _, c := range cases {
		limit, ok := SlotLimit(c.slot)
		if ok != c.ok || limit != c.limit {
			t.Errorf("SlotLimit(%q) = %d,%v want %d,%v", c.slot, limit, ok, c.limit, c.ok)
		}
	}
}

func TestValidSlot(t *testing.T) {
	if !ValidSlot(SlotFeed) {
		t.Error("feed should be a valid slot")
	}
	if ValidSlot("footer") {
		t.Error("footer should not be a valid slot")
	}
}

func TestCampaignInWindowEndDayLenience(t *testing.T) {
	// Campaign ended yesterday at 23:59. It must stay in window for any
	// instant during yesterday, even past the strict end instant, and fall
	// out of window the day after.
	endDate := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	c := Campaign{
		Status:    StatusActive,
		IsVisible: true,
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   endDate,
	}

	during := time.Date(2025, 3, 10, 23, 59, 30, 0, time.UTC)
	if !c.InWindow(during) {
		t.Error("campaign should remain in window through its end day")
	}
	dayAfter := time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC)
	if c.InWindow(dayAfter) {
		t.Error("campaign should be out of window the day after its end date")
	}
}

func TestCampaignEligible(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	base := Campaign{
		Status:    StatusActive,
		IsVisible: true,
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 1),
	}

	if !base.Eligible(now) {
		t.Fatal("base campaign should be eligible")
	}

	paused := base
	paused.Status = StatusPaused
	if paused.Eligible(now) {
		t.Error("paused campaign must not be eligible even inside its window")
	}

	hidden := base
	hidden.IsVisible = false
	if hidden.Eligible(now) {
		t.Error("hidden campaign must not be eligible")
	}

	future := base
	future.StartDate = now.AddDate(0, 0, 1)
	if future.Eligible(now) {
		t.Error("not-yet-started campaign must not be eligible")
	}
}

func TestHasFeedCoordinate(t *testing.T) {
	c := Campaign{Slot: SlotFeed, FeedTier: 1, TierSlot: 4}
	if !c.HasFeedCoordinate() {
		t.Error("(1,4) should be a valid coordinate")
	}
	c.TierSlot = 5
	if c.HasFeedCoordinate() {
		t.Error("(1,5) should be out of range")
	}
	c = Campaign{Slot: SlotFeed}
	if c.HasFeedCoordinate() {
		t.Error("missing coordinate should not validate")
	}
}
