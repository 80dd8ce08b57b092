package analytics

import (
	"context"
	"fmt"
	"sync"

	"divebook/pkg/kafka"
	"divebook/pkg/logger"
)

// FunnelStats aggregates booking outcomes per slot.
type FunnelStats struct {
	Confirmed int64 `json:"confirmed"`
	Rejected  int64 `json:"rejected"`
	Abandoned int64 `json:"abandoned"`
	Cancelled int64 `json:"cancelled"`
	Seats     int64 `json:"seats"`
}

// Aggregator consumes booking events and keeps per-slot funnel counts.
// It is the handler behind the analytics consumer binary.
type Aggregator struct {
	log *logger.Logger

	mu    sync.RWMutex
	slots map[string]*FunnelStats
}

func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{
		log:   log.Component("analytics_aggregator"),
		slots: make(map[string]*FunnelStats),
	}
}

// Handle is the kafka message handler. Unknown event types are dropped
// with a warning rather than retried; they will never become decodable.
func (a *Aggregator) Handle(ctx context.Context, msg kafka.Message) error {
	var event Event
	if err := msg.DecodeValue(&event); err != nil {
		a.log.Warn("dropping undecodable booking event",
			"key", msg.Key,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	if event.SlotID == "" {
		a.log.Warn("dropping booking event without slot", "event_type", event.EventType)
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stats, ok := a.slots[event.SlotID]
	if !ok {
		stats = &FunnelStats{}
		a.slots[event.SlotID] = stats
	}

	switch event.EventType {
	case EventBookingConfirmed:
		stats.Confirmed++
		stats.Seats += int64(event.Participants)
	case EventBookingRejected:
		stats.Rejected++
	case EventBookingAbandoned:
		stats.Abandoned++
	case EventBookingCancelled:
		stats.Cancelled++
		stats.Seats -= int64(event.Participants)
	default:
		a.log.Warn("unknown booking event type", "event_type", event.EventType)
		return nil
	}

	a.log.Info("booking event recorded",
		"event_type", event.EventType,
		"slot_id", event.SlotID,
		"participants", event.Participants,
		"code", event.Code,
	)
	return nil
}

// SlotStats returns a copy of the stats for one slot.
func (a *Aggregator) SlotStats(slotID string) (FunnelStats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats, ok := a.slots[slotID]
	if !ok {
		return FunnelStats{}, fmt.Errorf("no stats recorded for slot %s", slotID)
	}
	return *stats, nil
}

// Snapshot returns a copy of all per-slot stats.
func (a *Aggregator) Snapshot() map[string]FunnelStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]FunnelStats, len(a.slots))
	for slotID, stats := range a.slots {
		out[slotID] = *stats
	}
	return out
}
