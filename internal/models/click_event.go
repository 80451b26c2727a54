package models

import "time"

// Engagement event types accepted by the tracking sink.
const (
	EventImpression = "impression"
	EventClick      = "click"
)

// ClickEvent is an immutable append-only record of a single click. It exists
// for time-bounded aggregates ("clicks in the last 7 days"); the all-time
// total lives on the Campaign row as a denormalized counter, updated in the
// same transaction as the event insert.
type ClickEvent struct {
	ID         string    `json:"id"`
	CampaignID int       `json:"campaign_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
