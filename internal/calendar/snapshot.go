package calendar

import (
	"context"
	"sync"
	"time"

	"divebook/pkg/logger"
	"divebook/pkg/model"
)

type snapshotEntry struct {
	slots     []*model.Slot
	fetchedAt time.Time
}

// SnapshotProvider wraps a Provider with a last-known-good slot cache.
// When the provider is unreachable, the cached snapshot is served with
// every slot flagged stale, as long as it is within the TTL.
type SnapshotProvider struct {
	inner Provider
	ttl   time.Duration
	log   *logger.Logger

	mu        sync.RWMutex
	snapshots map[string]snapshotEntry
	now       func() time.Time
}

func NewSnapshotProvider(inner Provider, ttl time.Duration, log *logger.Logger) *SnapshotProvider {
	return &SnapshotProvider{
		inner:     inner,
		ttl:       ttl,
		log:       log.Component("calendar_snapshot"),
		snapshots: make(map[string]snapshotEntry),
		now:       time.Now,
	}
}

func snapshotKey(bookingType string, from, to time.Time) string {
	return bookingType + "|" + from.UTC().Format(time.RFC3339) + "|" + to.UTC().Format(time.RFC3339)
}

// FetchSlots returns fresh provider slots when it can, and falls back to
// the cached snapshot on transient failure. A permanent provider error or
// a missing/expired snapshot surfaces the error unchanged.
func (p *SnapshotProvider) FetchSlots(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
	key := snapshotKey(bookingType, from, to)

	slots, err := p.inner.FetchSlots(ctx, bookingType, from, to)
	if err == nil {
		p.store(key, slots)
		return slots, nil
	}

	if providerErr, ok := err.(*ProviderError); ok && !providerErr.Transient() {
		return nil, err
	}

	cached, age, ok := p.lookup(key)
	if !ok {
		return nil, err
	}

	p.log.Warn("serving stale availability snapshot",
		"booking_type", bookingType,
		"snapshot_age", age.String(),
		"error", err,
	)

	stale := make([]*model.Slot, len(cached))
	for i, slot := range cached {
		copied := *slot
		copied.Stale = true
		stale[i] = &copied
	}
	return stale, nil
}

func (p *SnapshotProvider) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	return p.inner.Reserve(ctx, req)
}

func (p *SnapshotProvider) CancelReservation(ctx context.Context, externalRef string) error {
	return p.inner.CancelReservation(ctx, externalRef)
}

func (p *SnapshotProvider) GetSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	return p.inner.GetSlot(ctx, slotID)
}

func (p *SnapshotProvider) store(key string, slots []*model.Slot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[key] = snapshotEntry{
		slots:     slots,
		fetchedAt: p.now(),
	}
}

func (p *SnapshotProvider) lookup(key string) ([]*model.Slot, time.Duration, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.snapshots[key]
	if !ok {
		return nil, 0, false
	}

	age := p.now().Sub(entry.fetchedAt)
	if age > p.ttl {
		return nil, 0, false
	}

	return entry.slots, age, true
}
