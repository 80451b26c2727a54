package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"sponsorgrid/internal/models"
)

// Postgres wraps a postgres DB connection.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist.
//
// Feed-cell exclusivity and slot counts are both enforced inside the write
// transaction (see lockAndCheck in campaigns.go): the occupancy predicate is
// window-aware and an index cannot reference the current time, so a unique
// index would wrongly let a lapsed-but-active campaign hold its cell
// forever. The partial indexes here only serve the occupancy lookups.
const schemaSQL = `CREATE TABLE IF NOT EXISTS advertisers (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    contact_email TEXT
);

CREATE TABLE IF NOT EXISTS campaigns (
    id SERIAL PRIMARY KEY,
    advertiser_id INT REFERENCES advertisers(id),
    name TEXT NOT NULL,
    slot TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    is_visible BOOLEAN NOT NULL DEFAULT TRUE,
    start_date TIMESTAMPTZ NOT NULL,
    end_date TIMESTAMPTZ NOT NULL,
    feed_tier INT,
    tier_slot INT,
    creative_url TEXT,
    destination_url TEXT,
    description TEXT,
    cta_label TEXT,
    badge_label TEXT,
    video_url TEXT,
    categories TEXT[],
    countries TEXT[],
    impressions BIGINT NOT NULL DEFAULT 0,
    clicks BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS click_events (
    id UUID PRIMARY KEY,
    campaign_id INT NOT NULL REFERENCES campaigns(id),
    occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_campaigns_feed_cell ON campaigns (feed_tier, tier_slot)
    WHERE slot = 'feed' AND status = 'active' AND is_visible;
CREATE INDEX IF NOT EXISTS idx_campaigns_slot_eligible ON campaigns (slot, start_date, end_date)
    WHERE status = 'active' AND is_visible;
CREATE INDEX IF NOT EXISTS idx_click_events_campaign ON click_events (campaign_id, occurred_at);
`

const campaignColumns = `id, advertiser_id, name, slot, status, is_visible, start_date, end_date,
    COALESCE(feed_tier, 0), COALESCE(tier_slot, 0), COALESCE(creative_url, ''),
    COALESCE(destination_url, ''), COALESCE(description, ''), COALESCE(cta_label, ''),
    COALESCE(badge_label, ''), COALESCE(video_url, ''), categories, countries,
    impressions, clicks, created_at`

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// ensureSchema creates the required tables if they do not exist.
func (p *Postgres) ensureSchema() error {
	ctx := context.Background()
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func scanCampaign(s interface{ Scan(...any) error }) (models.Campaign, error) {
	var c models.Campaign
	var categories, countries []string
	err := s.Scan(&c.ID, &c.AdvertiserID, &c.Name, &c.Slot, &c.Status, &c.IsVisible,
		&c.StartDate, &c.EndDate, &c.FeedTier, &c.TierSlot, &c.CreativeURL,
		&c.DestinationURL, &c.Description, &c.CTALabel, &c.BadgeLabel, &c.VideoURL,
		pq.Array(&categories), pq.Array(&countries), &c.Impressions, &c.Clicks, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.Categories = categories
	c.Countries = countries
	return c, nil
}

// EligibleBySlot returns the currently eligible campaigns for a slot, newest
// first. Implements placement.CampaignSource.
func (p *Postgres) EligibleBySlot(ctx context.Context, slot string, now time.Time) ([]models.Campaign, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns
        WHERE slot = $1 AND status = 'active' AND is_visible
          AND start_date <= $2 AND end_date >= $3
        ORDER BY created_at DESC`,
		slot, now, models.StartOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("query eligible campaigns: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// FeedCellOccupant returns the eligible campaign occupying (tier, cell) at
// now, or nil when the cell is free. Implements placement.CampaignSource.
func (p *Postgres) FeedCellOccupant(ctx context.Context, tier, cell int, now time.Time) (*models.Campaign, error) {
	row := p.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns
        WHERE slot = 'feed' AND feed_tier = $1 AND tier_slot = $2
          AND status = 'active' AND is_visible
          AND start_date <= $3 AND end_date >= $4
        LIMIT 1`,
		tier, cell, now, models.StartOfDay(now))
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query feed cell occupant: %w", err)
	}
	return &c, nil
}

// GetCampaign returns a single campaign by ID, or ErrNotFound.
func (p *Postgres) GetCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	row := p.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &c, nil
}

// ListCampaigns returns all campaigns, ended ones included, newest first.
func (p *Postgres) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
