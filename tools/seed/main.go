// Command seed populates a development database with advertisers and
// campaigns: every count-limited slot filled to capacity and a handful of
// feed cells taken, so the placement endpoints have something to serve.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"sponsorgrid/internal/config"
	"sponsorgrid/internal/db"
	"sponsorgrid/internal/models"
	"sponsorgrid/internal/observability"
)

var (
	advertiserCount = flag.Int("advertisers", 4, "number of advertisers")
	feedCells       = flag.Int("feed-cells", 5, "number of feed cells to occupy (max 12)")
	flightDays      = flag.Int("flight-days", 14, "campaign flight length in days")
	seed            = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
)

var adjectives = []string{"Bright", "Quiet", "Golden", "Rapid", "Northern", "Velvet"}
var nouns = []string{"Signal", "Harbor", "Compass", "Orbit", "Meadow", "Relay"}

func fakeName(r *rand.Rand) string {
	return adjectives[r.Intn(len(adjectives))] + " " + nouns[r.Intn(len(nouns))]
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger, err := observability.InitLogger(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pg.Close()

	ctx := context.Background()
	r := rand.New(rand.NewSource(*seed))
	now := time.Now()

	advertisers := make([]models.Advertiser, 0, *advertiserCount)
	for i := 0; i < *advertiserCount; i++ {
		a := models.Advertiser{
			Name:         fakeName(r) + " Media",
			ContactEmail: fmt.Sprintf("ads%d@example.com", i+1),
		}
		if err := pg.InsertAdvertiser(ctx, &a); err != nil {
			logger.Fatal("insert advertiser", zap.Error(err))
		}
		advertisers = append(advertisers, a)
	}
	logger.Info("advertisers seeded", zap.Int("count", len(advertisers)))

	start := now.Add(-24 * time.Hour)
	end := now.AddDate(0, 0, *flightDays)

	newCampaign := func(slot string) models.Campaign {
		owner := advertisers[r.Intn(len(advertisers))]
		name := fakeName(r)
		return models.Campaign{
			AdvertiserID:   owner.ID,
			Name:           name,
			Slot:           slot,
			Status:         models.StatusActive,
			IsVisible:      true,
			StartDate:      start,
			EndDate:        end,
			CreativeURL:    fmt.Sprintf("https://cdn.example.com/%d.png", r.Intn(1000)),
			DestinationURL: "https://example.com/" + slot,
			CTALabel:       "Learn more",
			BadgeLabel:     "Sponsored",
		}
	}

	var created int
	for _, slot := range models.Slots() {
		limit, _ := models.SlotLimit(slot)
		for i := 0; i < limit; i++ {
			c := newCampaign(slot)
			if err := pg.InsertCampaign(ctx, &c, now); err != nil {
				logger.Warn("skip campaign", zap.String("slot", slot), zap.Error(err))
				continue
			}
			created++
		}
	}

	cells := *feedCells
	if cells > models.FeedTiers*models.FeedCellsPerTier {
		cells = models.FeedTiers * models.FeedCellsPerTier
	}
	for i := 0; i < cells; i++ {
		c := newCampaign(models.SlotFeed)
		c.FeedTier = i/models.FeedCellsPerTier + 1
		c.TierSlot = i%models.FeedCellsPerTier + 1
		if err := pg.InsertCampaign(ctx, &c, now); err != nil {
			logger.Warn("skip feed campaign",
				zap.Int("tier", c.FeedTier),
				zap.Int("cell", c.TierSlot),
				zap.Error(err))
			continue
		}
		created++
	}

	logger.Info("campaigns seeded", zap.Int("count", created))
}
