package analytics

import (
	"context"
	"sync"
	"time"
)

// MockEvent captures the arguments of a RecordEvent call.
type MockEvent struct {
	EventType  string
	CampaignID int
	RequestID  string
	Slot       string
}

// Mock implements Service in memory for tests.
type Mock struct {
	mu     sync.Mutex
	Events []MockEvent
	Err    error // returned from every call when set
}

func (m *Mock) RecordEvent(_ context.Context, eventType string, campaignID int, requestID, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, MockEvent{EventType: eventType, CampaignID: campaignID, RequestID: requestID, Slot: slot})
	return nil
}

func (m *Mock) ClicksSince(_ context.Context, campaignID int, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, e := range m.Events {
		if e.EventType == "click" && e.CampaignID == campaignID {
			n++
		}
	}
	return n, nil
}

// Recorded returns a copy of the captured events.
func (m *Mock) Recorded() []MockEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockEvent, len(m.Events))
	copy(out, m.Events)
	return out
}
