package analytics

import (
	"context"
	"encoding/json"
	"testing"

	"divebook/pkg/kafka"
	"divebook/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func eventMessage(t *testing.T, event Event) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: event.SlotID, Value: value}
}

func TestAggregatorCountsFunnel(t *testing.T) {
	agg := NewAggregator(testLogger())
	ctx := context.Background()

	events := []Event{
		{EventType: EventBookingConfirmed, SlotID: "slot-1", Participants: 3},
		{EventType: EventBookingConfirmed, SlotID: "slot-1", Participants: 2},
		{EventType: EventBookingRejected, SlotID: "slot-1", Participants: 4, Code: "SLOT_FULL"},
		{EventType: EventBookingAbandoned, SlotID: "slot-1", Participants: 1},
		{EventType: EventBookingCancelled, SlotID: "slot-1", Participants: 2},
		{EventType: EventBookingConfirmed, SlotID: "slot-2", Participants: 5},
	}

	for _, event := range events {
		if err := agg.Handle(ctx, eventMessage(t, event)); err != nil {
			t.Fatalf("handle failed: %v", err)
		}
	}

	stats, err := agg.SlotStats("slot-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Confirmed != 2 || stats.Rejected != 1 || stats.Abandoned != 1 || stats.Cancelled != 1 {
		t.Errorf("unexpected funnel counts: %+v", stats)
	}
	if stats.Seats != 3 {
		t.Errorf("seats = %d, want 3 (3+2 confirmed, 2 cancelled)", stats.Seats)
	}

	other, err := agg.SlotStats("slot-2")
	if err != nil {
		t.Fatal(err)
	}
	if other.Confirmed != 1 || other.Seats != 5 {
		t.Errorf("unexpected slot-2 stats: %+v", other)
	}
}

func TestAggregatorDropsUndecodableEvents(t *testing.T) {
	agg := NewAggregator(testLogger())

	msg := kafka.Message{Key: "slot-1", Value: []byte("not json")}
	if err := agg.Handle(context.Background(), msg); err != nil {
		t.Errorf("undecodable events must be dropped, not retried: %v", err)
	}

	if _, err := agg.SlotStats("slot-1"); err == nil {
		t.Error("no stats should be recorded for dropped events")
	}
}

func TestAggregatorUnknownEventType(t *testing.T) {
	agg := NewAggregator(testLogger())

	msg := eventMessage(t, Event{EventType: "booking.snoozed", SlotID: "slot-1"})
	if err := agg.Handle(context.Background(), msg); err != nil {
		t.Errorf("unknown event types must be dropped, not retried: %v", err)
	}

	stats, err := agg.SlotStats("slot-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats != (FunnelStats{}) {
		t.Errorf("unknown event must not change counts: %+v", stats)
	}
}

func TestAggregatorSnapshotIsCopy(t *testing.T) {
	agg := NewAggregator(testLogger())
	ctx := context.Background()

	agg.Handle(ctx, eventMessage(t, Event{EventType: EventBookingConfirmed, SlotID: "slot-1", Participants: 2}))

	snapshot := agg.Snapshot()
	entry := snapshot["slot-1"]
	entry.Confirmed = 99

	stats, _ := agg.SlotStats("slot-1")
	if stats.Confirmed != 1 {
		t.Error("mutating a snapshot must not affect the aggregator")
	}
}
