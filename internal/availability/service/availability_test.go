package service

import (
	"context"
	"testing"
	"time"

	"divebook/internal/calendar"
	"divebook/pkg/config"
	apperrors "divebook/pkg/errors"
	"divebook/pkg/logger"
	"divebook/pkg/model"
)

type stubProvider struct {
	slots      []*model.Slot
	fetchErr   error
	getSlotErr error
}

func (p *stubProvider) Reserve(ctx context.Context, req calendar.ReserveRequest) (*calendar.ReserveResult, error) {
	return nil, nil
}

func (p *stubProvider) CancelReservation(ctx context.Context, externalRef string) error {
	return nil
}

func (p *stubProvider) FetchSlots(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	out := make([]*model.Slot, len(p.slots))
	for i, s := range p.slots {
		copied := *s
		out[i] = &copied
	}
	return out, nil
}

func (p *stubProvider) GetSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	if p.getSlotErr != nil {
		return nil, p.getSlotErr
	}
	for _, s := range p.slots {
		if s.ID == slotID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, &calendar.ProviderError{Outcome: calendar.OutcomePermanent, Status: 404, Reason: "not found"}
}

type stubCounters struct {
	counters map[string]*model.SlotCounter
}

func (c *stubCounters) EnsureSlot(ctx context.Context, slotID string, capacity int) error { return nil }
func (c *stubCounters) Hold(ctx context.Context, slotID string, n int) error              { return nil }
func (c *stubCounters) Release(ctx context.Context, slotID string, n int) error           { return nil }

func (c *stubCounters) Find(ctx context.Context, slotID string) (*model.SlotCounter, error) {
	if counter, ok := c.counters[slotID]; ok {
		return counter, nil
	}
	return nil, nil
}

func (c *stubCounters) FindMany(ctx context.Context, slotIDs []string) (map[string]*model.SlotCounter, error) {
	out := make(map[string]*model.SlotCounter)
	for _, id := range slotIDs {
		if counter, ok := c.counters[id]; ok {
			out[id] = counter
		}
	}
	return out, nil
}

func newService(provider *stubProvider, counters map[string]*model.SlotCounter) AvailabilityService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
	return NewAvailabilityService(provider, &stubCounters{counters: counters}, cfg)
}

func day(hour int) time.Time {
	return time.Date(2026, 9, 1, hour, 0, 0, 0, time.UTC)
}

func TestQueryAvailabilityOverlaysReservedCounts(t *testing.T) {
	provider := &stubProvider{slots: []*model.Slot{
		{ID: "slot-1", BookingType: "dive", StartTime: day(9), Capacity: 8, Reserved: 0},
		{ID: "slot-2", BookingType: "dive", StartTime: day(14), Capacity: 4, Reserved: 0},
	}}
	counters := map[string]*model.SlotCounter{
		"slot-1": {SlotID: "slot-1", Capacity: 8, Reserved: 8},
		"slot-2": {SlotID: "slot-2", Capacity: 4, Reserved: 2},
	}

	slots, err := newService(provider, counters).QueryAvailability(context.Background(), "dive", day(0), day(23))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}

	if slots[0].Reserved != 8 || !slots[0].Full {
		t.Errorf("slot-1: reserved=%d full=%v, want 8/true", slots[0].Reserved, slots[0].Full)
	}
	if slots[1].Reserved != 2 || slots[1].Full {
		t.Errorf("slot-2: reserved=%d full=%v, want 2/false", slots[1].Reserved, slots[1].Full)
	}
	if slots[1].Remaining() != 2 {
		t.Errorf("slot-2 remaining = %d, want 2", slots[1].Remaining())
	}
}

func TestQueryAvailabilityUncountedSlotIsEmpty(t *testing.T) {
	provider := &stubProvider{slots: []*model.Slot{
		{ID: "slot-new", StartTime: day(9), Capacity: 6},
	}}

	slots, err := newService(provider, nil).QueryAvailability(context.Background(), "", day(0), day(23))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots[0].Reserved != 0 || slots[0].Full {
		t.Errorf("slot with no counter must show zero reserved, got %+v", slots[0])
	}
}

func TestQueryAvailabilityOrdering(t *testing.T) {
	provider := &stubProvider{slots: []*model.Slot{
		{ID: "slot-b", StartTime: day(14), Capacity: 4},
		{ID: "slot-c", StartTime: day(9), Capacity: 4},
		{ID: "slot-a", StartTime: day(14), Capacity: 4},
	}}

	slots, err := newService(provider, nil).QueryAvailability(context.Background(), "", day(0), day(23))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotOrder := []string{slots[0].ID, slots[1].ID, slots[2].ID}
	wantOrder := []string{"slot-c", "slot-a", "slot-b"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}
}

func TestQueryAvailabilityInvalidRange(t *testing.T) {
	provider := &stubProvider{}

	_, err := newService(provider, nil).QueryAvailability(context.Background(), "", day(12), day(9))

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got: %v", err)
	}
}

func TestQueryAvailabilityProviderDown(t *testing.T) {
	provider := &stubProvider{
		fetchErr: &calendar.ProviderError{Outcome: calendar.OutcomeTransient, Reason: "connection refused"},
	}

	_, err := newService(provider, nil).QueryAvailability(context.Background(), "", day(0), day(23))

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeUpstreamUnavailable {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE, got: %v", err)
	}
	if !appErr.Retryable {
		t.Error("UPSTREAM_UNAVAILABLE must be retryable")
	}
}

func TestGetSlotNotFound(t *testing.T) {
	provider := &stubProvider{}

	_, err := newService(provider, nil).GetSlot(context.Background(), "missing")

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got: %v", err)
	}
}

func TestGetSlotOverlaysCounter(t *testing.T) {
	provider := &stubProvider{slots: []*model.Slot{
		{ID: "slot-1", StartTime: day(9), Capacity: 8},
	}}
	counters := map[string]*model.SlotCounter{
		"slot-1": {SlotID: "slot-1", Capacity: 8, Reserved: 5},
	}

	slot, err := newService(provider, counters).GetSlot(context.Background(), "slot-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Reserved != 5 || slot.Remaining() != 3 {
		t.Errorf("reserved=%d remaining=%d, want 5/3", slot.Reserved, slot.Remaining())
	}
}
