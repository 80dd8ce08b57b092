package analytics

import (
	"context"
	"time"

	"divebook/pkg/kafka"
	"divebook/pkg/logger"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingRejected  = "booking.rejected"
	EventBookingAbandoned = "booking.abandoned"
	EventBookingCancelled = "booking.cancelled"
)

// Event is the booking funnel record published per coordinator outcome.
type Event struct {
	EventType     string    `json:"event_type"`
	SlotID        string    `json:"slot_id"`
	BookingType   string    `json:"booking_type,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	RequestToken  string    `json:"request_token"`
	Participants  int       `json:"participants"`
	Code          string    `json:"code,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Tracker records booking outcomes. Implementations must never block or
// fail the booking path; publishing is best effort.
type Tracker interface {
	Track(ctx context.Context, event Event)
}

type kafkaTracker struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaTracker(producer *kafka.Producer, log *logger.Logger) Tracker {
	return &kafkaTracker{
		producer: producer,
		log:      log.Component("analytics"),
	}
}

// Track publishes the event keyed by slot ID, so all events for one slot
// land on one partition in order. Errors are logged and dropped.
func (t *kafkaTracker) Track(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	correlationID, _ := ctx.Value(correlationIDKey{}).(string)

	msg := kafka.NewMessage().
		WithKey(event.SlotID).
		WithValue(event).
		WithEventType(event.EventType).
		WithCorrelationID(correlationID).
		WithSource("divebook").
		Build()

	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := t.producer.Publish(publishCtx, msg); err != nil {
			t.log.Warn("failed to publish analytics event",
				"event_type", event.EventType,
				"slot_id", event.SlotID,
				"error", err,
			)
		}
	}()
}

type correlationIDKey struct{}

// WithCorrelationID tags the context so tracked events can be joined to
// the originating request.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

type noopTracker struct{}

func NewNoopTracker() Tracker {
	return noopTracker{}
}

func (noopTracker) Track(ctx context.Context, event Event) {}
