package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sponsorgrid/internal/models"
	"sponsorgrid/internal/placement"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// InsertCampaign persists a new campaign. The application-level arbiter check
// runs before this call, but it is advisory only; this method closes the
// race. Non-feed slots re-validate the count limit under a
// transaction-scoped advisory lock on the slot name; feed campaigns re-check
// the cell occupant under a lock on the cell coordinate. Both rechecks use
// the arbiter's window-aware predicate, so a lapsed campaign never blocks a
// slot or cell it no longer serves in.
func (p *Postgres) InsertCampaign(ctx context.Context, c *models.Campaign, now time.Time) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert campaign: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockAndCheck(ctx, tx, c, now); err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx, `INSERT INTO campaigns (
        advertiser_id, name, slot, status, is_visible, start_date, end_date,
        feed_tier, tier_slot, creative_url, destination_url, description,
        cta_label, badge_label, video_url, categories, countries) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
    ) RETURNING id, created_at`,
		c.AdvertiserID, c.Name, c.Slot, c.Status, c.IsVisible, c.StartDate, c.EndDate,
		feedCoord(c.FeedTier), feedCoord(c.TierSlot), c.CreativeURL, c.DestinationURL,
		c.Description, c.CTALabel, c.BadgeLabel, c.VideoURL,
		pq.Array(c.Categories), pq.Array(c.Countries)).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert campaign: %w", err)
	}
	return nil
}

// UpdateCampaign persists changes to an existing campaign under the same
// storage-level guarantees as InsertCampaign.
func (p *Postgres) UpdateCampaign(ctx context.Context, c models.Campaign, now time.Time) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update campaign: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockAndCheck(ctx, tx, &c, now); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `UPDATE campaigns SET
        advertiser_id=$1, name=$2, slot=$3, status=$4, is_visible=$5,
        start_date=$6, end_date=$7, feed_tier=$8, tier_slot=$9,
        creative_url=$10, destination_url=$11, description=$12,
        cta_label=$13, badge_label=$14, video_url=$15,
        categories=$16, countries=$17 WHERE id=$18`,
		c.AdvertiserID, c.Name, c.Slot, c.Status, c.IsVisible, c.StartDate, c.EndDate,
		feedCoord(c.FeedTier), feedCoord(c.TierSlot), c.CreativeURL, c.DestinationURL,
		c.Description, c.CTALabel, c.BadgeLabel, c.VideoURL,
		pq.Array(c.Categories), pq.Array(c.Countries), c.ID)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update campaign: %w", err)
	}
	return nil
}

// DeleteCampaign removes a campaign and its click events. The placement
// engine never calls this; it exists for administrative cleanup only.
func (p *Postgres) DeleteCampaign(ctx context.Context, id int) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete campaign: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM click_events WHERE campaign_id=$1`, id); err != nil {
		return fmt.Errorf("delete click events: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete campaign: %w", err)
	}
	return nil
}

// lockAndCheck routes an eligible draft to the occupancy recheck for its
// slot kind. Drafts that would be ineligible at now occupy nothing and skip
// the check entirely.
func lockAndCheck(ctx context.Context, tx *sql.Tx, c *models.Campaign, now time.Time) error {
	if !c.Eligible(now) {
		return nil
	}
	if c.Slot == models.SlotFeed {
		return lockAndCheckFeedCell(ctx, tx, c.FeedTier, c.TierSlot, c.ID, now)
	}
	return lockAndCheckSlot(ctx, tx, c.Slot, c.ID, now)
}

// lockAndCheckSlot takes a transaction-scoped advisory lock on the slot name
// and re-counts the eligible occupants, excluding the row being written.
// Holding the lock until commit serializes the check-then-insert sequence for
// count-limited slots.
func lockAndCheckSlot(ctx context.Context, tx *sql.Tx, slot string, selfID int, now time.Time) error {
	limit, ok := models.SlotLimit(slot)
	if !ok {
		return &placement.ConfigError{Reason: "unknown slot " + slot}
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "slot:"+slot); err != nil {
		return fmt.Errorf("advisory lock slot %s: %w", slot, err)
	}
	var count int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns
        WHERE slot = $1 AND status = 'active' AND is_visible
          AND start_date <= $2 AND end_date >= $3 AND id <> $4`,
		slot, now, models.StartOfDay(now), selfID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count slot occupants: %w", err)
	}
	if count >= limit {
		return &placement.CapacityError{Slot: slot, Limit: limit}
	}
	return nil
}

// lockAndCheckFeedCell takes a transaction-scoped advisory lock on the cell
// coordinate and re-reads the occupant with the same window-aware predicate
// the arbiter uses, excluding the row being written. Status alone never
// blocks a cell: an active campaign whose flight has lapsed reads as absent,
// matching the eligibility rules exactly.
func lockAndCheckFeedCell(ctx context.Context, tx *sql.Tx, tier, cell, selfID int, now time.Time) error {
	key := fmt.Sprintf("cell:%d:%d", tier, cell)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("advisory lock feed cell %d/%d: %w", tier, cell, err)
	}
	var occupantID int
	err := tx.QueryRowContext(ctx, `SELECT id FROM campaigns
        WHERE slot = 'feed' AND feed_tier = $1 AND tier_slot = $2
          AND status = 'active' AND is_visible
          AND start_date <= $3 AND end_date >= $4 AND id <> $5
        LIMIT 1`,
		tier, cell, now, models.StartOfDay(now), selfID).Scan(&occupantID)
	if err == nil {
		return &placement.CapacityError{Slot: models.SlotFeed, Tier: tier, Cell: cell}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check feed cell occupant: %w", err)
	}
	return nil
}

// feedCoord converts the zero value used for non-feed campaigns to NULL so
// coordinate lookups never match a (0,0) placeholder.
func feedCoord(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
