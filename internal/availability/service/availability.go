package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	availabilityerrors "divebook/internal/availability/errors"
	"divebook/internal/bookings/repository"
	"divebook/internal/calendar"
	"divebook/pkg/config"
	apperrors "divebook/pkg/errors"
	"divebook/pkg/model"
)

type AvailabilityService interface {
	QueryAvailability(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error)
	GetSlot(ctx context.Context, slotID string) (*model.Slot, error)
}

// availabilityService merges provider slot windows with the locally
// tracked reservation counters. The provider knows what can be offered;
// the counters know what has already been committed.
type availabilityService struct {
	provider calendar.Provider
	counters repository.SlotCounterRepository
	cfg      *config.Config
}

func NewAvailabilityService(
	provider calendar.Provider,
	counters repository.SlotCounterRepository,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		provider: provider,
		counters: counters,
		cfg:      cfg,
	}
}

func (s *availabilityService) QueryAvailability(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
	if !to.After(from) {
		return nil, apperrors.InvalidInput(availabilityerrors.ErrInvalidRange.Error())
	}

	slots, err := s.provider.FetchSlots(ctx, bookingType, from, to)
	if err != nil {
		return nil, s.mapProviderError(err)
	}

	if err := s.overlayReserved(ctx, slots); err != nil {
		return nil, err
	}

	// deterministic order: start time, then ID for identical windows
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].StartTime.Before(slots[j].StartTime)
	})

	return slots, nil
}

func (s *availabilityService) GetSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	slot, err := s.provider.GetSlot(ctx, slotID)
	if err != nil {
		var providerErr *calendar.ProviderError
		if errors.As(err, &providerErr) && providerErr.Status == http.StatusNotFound {
			return nil, apperrors.NotFoundWithID("Slot", slotID)
		}
		return nil, s.mapProviderError(err)
	}

	if err := s.overlayReserved(ctx, []*model.Slot{slot}); err != nil {
		return nil, err
	}

	return slot, nil
}

// overlayReserved replaces each slot's provider-reported reserved count
// with the locally committed one, which is authoritative for capacity.
func (s *availabilityService) overlayReserved(ctx context.Context, slots []*model.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	ids := make([]string, len(slots))
	for i, slot := range slots {
		ids[i] = slot.ID
	}

	counters, err := s.counters.FindMany(ctx, ids)
	if err != nil {
		return apperrors.Internal("Failed to load slot counters", err)
	}

	for _, slot := range slots {
		if counter, ok := counters[slot.ID]; ok {
			slot.Reserved = counter.Reserved
		}
		slot.Full = slot.Remaining() < 1
	}

	return nil
}

func (s *availabilityService) mapProviderError(err error) error {
	var providerErr *calendar.ProviderError
	if errors.As(err, &providerErr) && !providerErr.Transient() {
		return apperrors.InvalidInput(providerErr.Reason)
	}
	return apperrors.UpstreamUnavailable("Availability is temporarily unavailable", err)
}
