package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"sponsorgrid/internal/db"
	"sponsorgrid/internal/models"
	"sponsorgrid/internal/observability"
	"sponsorgrid/internal/placement"
	"sponsorgrid/internal/tracking"
)

// memStore is an in-memory CampaignStore and tracking.CounterStore standing
// in for Postgres. It applies the same eligibility rules but none of the
// transactional capacity enforcement; handler tests exercise the advisory
// arbiter path.
type memStore struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]models.Campaign
	clickIDs  map[int][]string
	clicks7d  map[int]int64
	err       error
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: make(map[int]models.Campaign),
		clickIDs:  make(map[int][]string),
		clicks7d:  make(map[int]int64),
	}
}

func (m *memStore) add(c models.Campaign) models.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		m.nextID++
		c.ID = m.nextID
	} else if c.ID > m.nextID {
		m.nextID = c.ID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().Add(-time.Duration(c.ID) * time.Minute)
	}
	m.campaigns[c.ID] = c
	return c
}

func (m *memStore) EligibleBySlot(_ context.Context, slot string, now time.Time) ([]models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Campaign
	for _, c := range m.campaigns {
		if c.Slot == slot && c.Eligible(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) FeedCellOccupant(_ context.Context, tier, cell int, now time.Time) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.campaigns {
		if c.Slot == models.SlotFeed && c.FeedTier == tier && c.TierSlot == cell && c.Eligible(now) {
			occ := c
			return &occ, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetCampaign(_ context.Context, id int) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) ListCampaigns(_ context.Context) ([]models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) InsertCampaign(_ context.Context, c *models.Campaign, now time.Time) error {
	if m.err != nil {
		return m.err
	}
	*c = m.add(*c)
	return nil
}

func (m *memStore) UpdateCampaign(_ context.Context, c models.Campaign, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return db.ErrNotFound
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *memStore) DeleteCampaign(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

func (m *memStore) ClicksSince(_ context.Context, campaignID int, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clicks7d[campaignID], nil
}

func (m *memStore) IncrementImpressions(_ context.Context, campaignID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return db.ErrNotFound
	}
	c.Impressions++
	m.campaigns[campaignID] = c
	return nil
}

func (m *memStore) RecordClick(_ context.Context, campaignID int, eventID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return db.ErrNotFound
	}
	c.Clicks++
	m.campaigns[campaignID] = c
	m.clickIDs[campaignID] = append(m.clickIDs[campaignID], eventID)
	return nil
}

// gaugeRecorder captures eligibility gauge writes, no-op for everything else.
type gaugeRecorder struct {
	observability.NoOpRegistry
	mu     sync.Mutex
	gauges map[string]int
}

func newGaugeRecorder() *gaugeRecorder {
	return &gaugeRecorder{gauges: make(map[string]int)}
}

func (g *gaugeRecorder) SetEligibleCampaigns(slot string, n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gauges[slot] = n
}

func (g *gaugeRecorder) gauge(slot string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.gauges[slot]
	return n, ok
}

func newTestServer(store *memStore) *Server {
	logger := zap.NewNop()
	return &Server{
		Logger:    logger,
		Campaigns: store,
		Tracker:   tracking.New(store, nil, nil, logger, nil, time.Second),
		Arbiter:   placement.NewArbiter(store, logger),
		Metrics:   observability.NewNoOpRegistry(),
	}
}

// activeWindow returns a start and end date bracketing now.
func activeWindow(now time.Time) (time.Time, time.Time) {
	return now.Add(-24 * time.Hour), now.Add(7 * 24 * time.Hour)
}

func liveCampaign(id int, slot string, now time.Time) models.Campaign {
	start, end := activeWindow(now)
	return models.Campaign{
		ID:             id,
		AdvertiserID:   1,
		Name:           "campaign-" + slot,
		Slot:           slot,
		Status:         models.StatusActive,
		IsVisible:      true,
		StartDate:      start,
		EndDate:        end,
		CreativeURL:    "https://cdn.example.com/creative.png",
		DestinationURL: "https://example.com",
	}
}
