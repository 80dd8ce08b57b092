package calendar

import (
	"context"
	"testing"
	"time"

	"divebook/pkg/model"
)

type fakeProvider struct {
	fetchSlotsFn func(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error)
}

func (f *fakeProvider) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	return nil, nil
}

func (f *fakeProvider) CancelReservation(ctx context.Context, externalRef string) error {
	return nil
}

func (f *fakeProvider) FetchSlots(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
	return f.fetchSlotsFn(ctx, bookingType, from, to)
}

func (f *fakeProvider) GetSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	return nil, nil
}

func transientErr() error {
	return &ProviderError{Outcome: OutcomeTransient, Reason: "provider down"}
}

func TestSnapshotServesFreshSlots(t *testing.T) {
	inner := &fakeProvider{
		fetchSlotsFn: func(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
			return []*model.Slot{{ID: "slot-1", Capacity: 8}}, nil
		},
	}
	provider := NewSnapshotProvider(inner, 5*time.Minute, testLogger())

	from := time.Now()
	slots, err := provider.FetchSlots(context.Background(), "dive", from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 || slots[0].Stale {
		t.Errorf("expected one fresh slot, got %+v", slots)
	}
}

func TestSnapshotFallsBackWhenProviderDown(t *testing.T) {
	healthy := true
	inner := &fakeProvider{
		fetchSlotsFn: func(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
			if !healthy {
				return nil, transientErr()
			}
			return []*model.Slot{{ID: "slot-1", Capacity: 8}}, nil
		},
	}
	provider := NewSnapshotProvider(inner, 5*time.Minute, testLogger())

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	if _, err := provider.FetchSlots(context.Background(), "dive", from, to); err != nil {
		t.Fatalf("warm-up fetch failed: %v", err)
	}

	healthy = false
	slots, err := provider.FetchSlots(context.Background(), "dive", from, to)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(slots))
	}
	if !slots[0].Stale {
		t.Error("expected slot to be flagged stale")
	}
}

func TestSnapshotDoesNotMutateCachedSlots(t *testing.T) {
	healthy := true
	inner := &fakeProvider{
		fetchSlotsFn: func(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
			if !healthy {
				return nil, transientErr()
			}
			return []*model.Slot{{ID: "slot-1", Capacity: 8}}, nil
		},
	}
	provider := NewSnapshotProvider(inner, 5*time.Minute, testLogger())

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	provider.FetchSlots(context.Background(), "dive", from, to)

	healthy = false
	provider.FetchSlots(context.Background(), "dive", from, to)

	provider.mu.RLock()
	defer provider.mu.RUnlock()
	for _, entry := range provider.snapshots {
		for _, slot := range entry.slots {
			if slot.Stale {
				t.Error("cached slot was mutated by stale fallback")
			}
		}
	}
}

func TestSnapshotExpiredReturnsError(t *testing.T) {
	healthy := true
	inner := &fakeProvider{
		fetchSlotsFn: func(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
			if !healthy {
				return nil, transientErr()
			}
			return []*model.Slot{{ID: "slot-1", Capacity: 8}}, nil
		},
	}
	provider := NewSnapshotProvider(inner, 5*time.Minute, testLogger())

	current := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return current }

	from := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	if _, err := provider.FetchSlots(context.Background(), "dive", from, to); err != nil {
		t.Fatalf("warm-up fetch failed: %v", err)
	}

	healthy = false
	current = current.Add(10 * time.Minute)

	if _, err := provider.FetchSlots(context.Background(), "dive", from, to); err == nil {
		t.Error("expected error once the snapshot expired")
	}
}

func TestSnapshotPermanentErrorBypassesCache(t *testing.T) {
	permanent := &ProviderError{Outcome: OutcomePermanent, Status: 400, Reason: "bad range"}
	healthy := true
	inner := &fakeProvider{
		fetchSlotsFn: func(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
			if !healthy {
				return nil, permanent
			}
			return []*model.Slot{{ID: "slot-1", Capacity: 8}}, nil
		},
	}
	provider := NewSnapshotProvider(inner, 5*time.Minute, testLogger())

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	provider.FetchSlots(context.Background(), "dive", from, to)

	healthy = false
	_, err := provider.FetchSlots(context.Background(), "dive", from, to)
	if err != permanent {
		t.Errorf("expected the permanent error to surface, got: %v", err)
	}
}
