package models

import "time"

// Slot names identify the fixed page locations eligible to hold sponsored
// content. The set is closed: campaigns referencing any other slot are
// rejected at write time.
const (
	SlotTopBanner    = "top-banner"
	SlotHomepageHero = "homepage-hero"
	SlotFeed         = "feed"
	SlotNavbarCTA    = "navbar-cta"
	SlotJoinCTA      = "join-cta"
	SlotFilterCTA    = "filter-cta"
)

// Campaign status values. Status is independent of the scheduling window:
// a paused campaign inside its window is still ineligible.
const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusEnded  = "ended"
)

// Feed grid geometry: 3 tiers of 4 cells, 12 addressable cells total.
const (
	FeedTiers        = 3
	FeedCellsPerTier = 4
)

// slotLimits is the single configuration table mapping each non-feed slot to
// the maximum number of concurrently eligible campaigns. Both the capacity
// arbiter and the active-campaign selector consult it; the feed slot is
// governed by cell exclusivity instead of a count.
var slotLimits = map[string]int{
	SlotTopBanner:    2,
	SlotHomepageHero: 1,
	SlotNavbarCTA:    1,
	SlotJoinCTA:      1,
	SlotFilterCTA:    1,
}

// SlotLimit returns the concurrent-eligibility limit for a non-feed slot.
// The second return is false for the feed slot and for unknown slot names.
func SlotLimit(slot string) (int, bool) {
	n, ok := slotLimits[slot]
	return n, ok
}

// Slots returns the non-feed slot names in no particular order.
func Slots() []string {
	out := make([]string, 0, len(slotLimits))
	for s := range slotLimits {
		out = append(out, s)
	}
	return out
}

// ValidSlot reports whether slot is one of the known slot names, feed included.
func ValidSlot(slot string) bool {
	if slot == SlotFeed {
		return true
	}
	_, ok := slotLimits[slot]
	return ok
}

// Campaign is a time-boxed offer to display creative content in a named slot.
// An advertiser owns zero or more campaigns; a campaign belongs to exactly
// one advertiser. Ended campaigns are retained for reporting and are never
// deleted by the placement engine itself.
type Campaign struct {
	ID           int    `json:"id"`
	AdvertiserID int    `json:"advertiser_id"`
	Name         string `json:"name"`
	Slot         string `json:"slot"`
	Status       string `json:"status"`
	IsVisible    bool   `json:"is_visible"`
	// Scheduling window, inclusive on both ends. A campaign remains
	// selectable through its entire end day (see InWindow).
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// Feed coordinate; only meaningful when Slot == SlotFeed.
	// FeedTier is 1..3, TierSlot is 1..4. Zero when unset.
	FeedTier int `json:"feed_tier,omitempty"`
	TierSlot int `json:"tier_slot,omitempty"`
	// Presentation fields, used for display only, never for allocation.
	CreativeURL    string   `json:"creative_url"`
	DestinationURL string   `json:"destination_url"`
	Description    string   `json:"description,omitempty"`
	CTALabel       string   `json:"cta_label,omitempty"`
	BadgeLabel     string   `json:"badge_label,omitempty"`
	VideoURL       string   `json:"video_url,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Countries      []string `json:"countries,omitempty"`
	// All-time engagement totals, denormalized onto the campaign row and
	// incremented in place.
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`

	CreatedAt time.Time `json:"created_at"`
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// InWindow reports whether the campaign's flight covers now. The end bound is
// compared against the start of the current day rather than the exact
// instant, so a campaign stays selectable through its whole end day instead
// of disappearing mid-day.
func (c *Campaign) InWindow(now time.Time) bool {
	return !c.StartDate.After(now) && !c.EndDate.Before(StartOfDay(now))
}

// Eligible reports whether the campaign may serve at now: active, visible,
// and in window.
func (c *Campaign) Eligible(now time.Time) bool {
	return c.Status == StatusActive && c.IsVisible && c.InWindow(now)
}

// HasFeedCoordinate reports whether both tier and cell are present and in
// range for a feed campaign.
func (c *Campaign) HasFeedCoordinate() bool {
	return c.FeedTier >= 1 && c.FeedTier <= FeedTiers &&
		c.TierSlot >= 1 && c.TierSlot <= FeedCellsPerTier
}
