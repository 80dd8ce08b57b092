package service

import (
	"context"
	"errors"
	"time"

	"divebook/internal/analytics"
	bookingserrors "divebook/internal/bookings/errors"
	"divebook/internal/bookings/repository"
	"divebook/internal/bookings/validator"
	"divebook/internal/calendar"
	"divebook/pkg/config"
	apperrors "divebook/pkg/errors"
	"divebook/pkg/model"
	"divebook/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// SlotSource resolves a slot's definition, used to seed the local
// capacity counter the first time a slot is booked.
type SlotSource interface {
	GetSlot(ctx context.Context, slotID string) (*model.Slot, error)
}

type ReservationService interface {
	Book(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetByToken(ctx context.Context, token string) (*model.Reservation, error)
	ListBySlot(ctx context.Context, slotID string, limit int, offset int64) ([]*model.Reservation, int64, error)
}

// reservationService is the booking coordinator. Book admits the request
// token, holds slot capacity, commits with the calendar provider, and
// persists the reservation, in that order. Every failure path settles or
// releases both the token and the capacity hold, so no seat is ever
// leaked and a retried token always replays a consistent outcome.
type reservationService struct {
	reservations repository.ReservationRepository
	tokens       repository.TokenRepository
	counters     repository.SlotCounterRepository
	provider     calendar.Provider
	slots        SlotSource
	validator    *validator.ReservationValidator
	tracker      analytics.Tracker
	cfg          *config.Config
}

func NewReservationService(
	reservations repository.ReservationRepository,
	tokens repository.TokenRepository,
	counters repository.SlotCounterRepository,
	provider calendar.Provider,
	slots SlotSource,
	validator *validator.ReservationValidator,
	tracker analytics.Tracker,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		reservations: reservations,
		tokens:       tokens,
		counters:     counters,
		provider:     provider,
		slots:        slots,
		validator:    validator,
		tracker:      tracker,
		cfg:          cfg,
	}
}

func (s *reservationService) Book(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error) {
	s.sanitize(req)
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Invalid reservation request", map[string]any{
			"errors": err.Error(),
		})
	}

	record, fresh, err := s.tokens.Admit(ctx, req.RequestToken, req.SlotID, req.Participants)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateInFlight) {
			return s.awaitSettledToken(ctx, req)
		}
		return nil, apperrors.Internal("Failed to admit request token", err)
	}

	if !fresh {
		return s.replayToken(ctx, req, record)
	}

	return s.commit(ctx, req)
}

// commit runs the fresh-admission path: hold capacity, book upstream,
// persist. The caller owns the in-flight token and must not return
// without settling or releasing it.
func (s *reservationService) commit(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error) {
	if err := s.holdCapacity(ctx, req); err != nil {
		return nil, err
	}

	result, err := s.provider.Reserve(ctx, calendar.ReserveRequest{
		RequestToken: req.RequestToken,
		SlotID:       req.SlotID,
		BookingType:  req.BookingType,
		Participants: req.Participants,
		ContactName:  req.Contact.Name,
		ContactEmail: req.Contact.Email,
	})
	if err != nil {
		return nil, s.handleProviderFailure(ctx, req, err)
	}

	reservation := &model.Reservation{
		ID:           uuid.New().String(),
		SlotID:       req.SlotID,
		RequestToken: req.RequestToken,
		BookingType:  req.BookingType,
		Participants: req.Participants,
		Contact:      req.Contact,
		Status:       model.ReservationStatusConfirmed,
		ExternalRef:  result.ExternalRef,
	}

	err = s.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.reservations.Create(sessCtx, reservation); err != nil {
			return err
		}
		return s.tokens.Resolve(sessCtx, req.RequestToken, reservation.ID)
	})
	if err != nil {
		s.compensate(ctx, req, result.ExternalRef)
		s.cfg.Log.Error("Failed to persist reservation after provider commit",
			"request_token", req.RequestToken,
			"slot_id", req.SlotID,
			"external_ref", result.ExternalRef,
			"error", err,
		)
		return nil, apperrors.TemporarilyUnavailable("Booking could not be completed, please retry", err)
	}

	s.cfg.Log.Info("Reservation confirmed",
		"id", reservation.ID,
		"slot_id", reservation.SlotID,
		"participants", reservation.Participants,
		"external_ref", reservation.ExternalRef,
	)

	s.tracker.Track(ctx, analytics.Event{
		EventType:     analytics.EventBookingConfirmed,
		SlotID:        reservation.SlotID,
		BookingType:   reservation.BookingType,
		ReservationID: reservation.ID,
		RequestToken:  reservation.RequestToken,
		Participants:  reservation.Participants,
	})

	return reservation, nil
}

// holdCapacity reserves seats on the slot counter, seeding the counter
// from the slot source on first contact. A full slot settles the token as
// rejected before returning, so retries replay the same refusal.
func (s *reservationService) holdCapacity(ctx context.Context, req *model.ReservationRequest) error {
	err := s.counters.Hold(ctx, req.SlotID, req.Participants)
	if errors.Is(err, bookingserrors.ErrSlotNotFound) {
		slot, slotErr := s.slots.GetSlot(ctx, req.SlotID)
		if slotErr != nil {
			s.releaseToken(ctx, req.RequestToken)
			return slotErr
		}
		if ensureErr := s.counters.EnsureSlot(ctx, req.SlotID, slot.Capacity); ensureErr != nil {
			s.releaseToken(ctx, req.RequestToken)
			return apperrors.Internal("Failed to initialize slot capacity", ensureErr)
		}
		err = s.counters.Hold(ctx, req.SlotID, req.Participants)
	}

	if err == nil {
		return nil
	}

	if errors.Is(err, bookingserrors.ErrSlotFull) {
		if rejectErr := s.tokens.Reject(ctx, req.RequestToken, apperrors.CodeSlotFull); rejectErr != nil {
			s.cfg.Log.Error("Failed to settle token after capacity refusal",
				"request_token", req.RequestToken,
				"error", rejectErr,
			)
		}
		s.trackRejected(ctx, req, apperrors.CodeSlotFull)
		return s.slotFullError(ctx, req)
	}

	s.releaseToken(ctx, req.RequestToken)
	return apperrors.Internal("Failed to hold slot capacity", err)
}

// handleProviderFailure undoes the capacity hold and settles the token
// according to the failure class. Transient failures release the token so
// the same token can retry; permanent refusals settle it as rejected.
func (s *reservationService) handleProviderFailure(ctx context.Context, req *model.ReservationRequest, err error) error {
	if releaseErr := s.counters.Release(ctx, req.SlotID, req.Participants); releaseErr != nil {
		s.cfg.Log.Error("Failed to release capacity after provider failure",
			"slot_id", req.SlotID,
			"participants", req.Participants,
			"error", releaseErr,
		)
	}

	var providerErr *calendar.ProviderError
	if errors.As(err, &providerErr) && !providerErr.Transient() {
		if rejectErr := s.tokens.Reject(ctx, req.RequestToken, apperrors.CodeSlotRejected); rejectErr != nil {
			s.cfg.Log.Error("Failed to settle token after provider refusal",
				"request_token", req.RequestToken,
				"error", rejectErr,
			)
		}
		s.trackRejected(ctx, req, apperrors.CodeSlotRejected)
		return apperrors.SlotRejected(req.SlotID, providerErr.Reason)
	}

	s.releaseToken(ctx, req.RequestToken)
	s.tracker.Track(ctx, analytics.Event{
		EventType:    analytics.EventBookingAbandoned,
		SlotID:       req.SlotID,
		BookingType:  req.BookingType,
		RequestToken: req.RequestToken,
		Participants: req.Participants,
		Code:         apperrors.CodeTemporarilyUnavailable,
	})
	return apperrors.TemporarilyUnavailable("The calendar provider is unavailable, please retry", err)
}

// compensate rolls back a provider-side booking that could not be
// persisted locally. All steps are best effort and logged.
func (s *reservationService) compensate(ctx context.Context, req *model.ReservationRequest, externalRef string) {
	if err := s.provider.CancelReservation(ctx, externalRef); err != nil {
		s.cfg.Log.Error("Failed to cancel provider reservation during rollback",
			"external_ref", externalRef,
			"error", err,
		)
	}
	if err := s.counters.Release(ctx, req.SlotID, req.Participants); err != nil {
		s.cfg.Log.Error("Failed to release capacity during rollback",
			"slot_id", req.SlotID,
			"error", err,
		)
	}
	s.releaseToken(ctx, req.RequestToken)
}

func (s *reservationService) releaseToken(ctx context.Context, token string) {
	if err := s.tokens.Release(ctx, token); err != nil {
		s.cfg.Log.Error("Failed to release request token", "request_token", token, "error", err)
	}
}

// replayToken maps an already-admitted token to its recorded outcome.
// Settled tokens replay their result; an in-flight token is polled for a
// bounded wait before reporting the duplicate.
func (s *reservationService) replayToken(ctx context.Context, req *model.ReservationRequest, record *model.TokenRecord) (*model.Reservation, error) {
	switch record.State {
	case model.TokenStateConfirmed:
		reservation, err := s.reservations.FindByID(ctx, record.ReservationID)
		if err != nil {
			return nil, apperrors.Internal("Failed to load confirmed reservation", err)
		}
		return reservation, nil

	case model.TokenStateRejected:
		return nil, s.replayRejection(ctx, req, record)

	default:
		return s.awaitSettledToken(ctx, req)
	}
}

func (s *reservationService) replayRejection(ctx context.Context, req *model.ReservationRequest, record *model.TokenRecord) error {
	if record.RejectCode == apperrors.CodeSlotRejected {
		return apperrors.SlotRejected(record.SlotID, "the calendar provider rejected this slot")
	}
	return s.slotFullError(ctx, req)
}

func (s *reservationService) slotFullError(ctx context.Context, req *model.ReservationRequest) error {
	remaining := 0
	if counter, err := s.counters.Find(ctx, req.SlotID); err == nil {
		remaining = counter.Capacity - counter.Reserved
		if remaining < 0 {
			remaining = 0
		}
	}
	return apperrors.SlotFull(req.SlotID, req.Participants, remaining)
}

// awaitSettledToken polls an in-flight token within the configured wait
// budget. If the concurrent holder settles in time its outcome is
// replayed; otherwise the caller gets a retryable duplicate error.
func (s *reservationService) awaitSettledToken(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error) {
	deadline := time.Now().Add(s.cfg.DuplicateWaitBudget)
	ticker := time.NewTicker(s.cfg.DuplicateWaitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, apperrors.DuplicateInFlight(req.RequestToken)
		case <-ticker.C:
		}

		record, err := s.tokens.Find(ctx, req.RequestToken)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrTokenNotFound) {
				// the holder hit a transient failure and released;
				// this request takes over the token
				record, fresh, admitErr := s.tokens.Admit(ctx, req.RequestToken, req.SlotID, req.Participants)
				if admitErr != nil {
					return nil, apperrors.Internal("Failed to re-admit request token", admitErr)
				}
				if !fresh {
					return s.replayToken(ctx, req, record)
				}
				return s.commit(ctx, req)
			}
			return nil, apperrors.Internal("Failed to poll request token", err)
		}

		switch record.State {
		case model.TokenStateConfirmed, model.TokenStateRejected:
			return s.replayToken(ctx, req, record)
		}

		if time.Now().After(deadline) {
			return nil, apperrors.DuplicateInFlight(req.RequestToken)
		}
	}
}

func (s *reservationService) Cancel(ctx context.Context, id string) error {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if reservation.Status == model.ReservationStatusCancelled {
		return apperrors.Conflict("Reservation is already cancelled")
	}

	if reservation.ExternalRef != "" {
		if err := s.provider.CancelReservation(ctx, reservation.ExternalRef); err != nil {
			var providerErr *calendar.ProviderError
			if errors.As(err, &providerErr) && providerErr.Transient() {
				return apperrors.TemporarilyUnavailable("The calendar provider is unavailable, please retry", err)
			}
			s.cfg.Log.Error("Provider refused cancellation, releasing seats locally",
				"id", id,
				"external_ref", reservation.ExternalRef,
				"error", err,
			)
		}
	}

	err = s.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.reservations.UpdateStatus(sessCtx, id, model.ReservationStatusConfirmed, model.ReservationStatusCancelled); err != nil {
			return err
		}
		return s.counters.Release(sessCtx, reservation.SlotID, reservation.Participants)
	})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrAlreadyCancelled) {
			return apperrors.Conflict("Reservation is already cancelled")
		}
		return apperrors.Internal("Failed to cancel reservation", err)
	}

	s.cfg.Log.Info("Reservation cancelled",
		"id", id,
		"slot_id", reservation.SlotID,
		"participants", reservation.Participants,
	)

	s.tracker.Track(ctx, analytics.Event{
		EventType:     analytics.EventBookingCancelled,
		SlotID:        reservation.SlotID,
		BookingType:   reservation.BookingType,
		ReservationID: reservation.ID,
		RequestToken:  reservation.RequestToken,
		Participants:  reservation.Participants,
	})

	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Reservation", id)
		case errors.Is(err, bookingserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid reservation ID")
		default:
			return nil, apperrors.Internal("Failed to load reservation", err)
		}
	}
	return reservation, nil
}

func (s *reservationService) GetByToken(ctx context.Context, token string) (*model.Reservation, error) {
	reservation, err := s.reservations.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Reservation")
		}
		return nil, apperrors.Internal("Failed to load reservation", err)
	}
	return reservation, nil
}

func (s *reservationService) ListBySlot(ctx context.Context, slotID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	reservations, err := s.reservations.FindBySlot(ctx, slotID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list reservations", err)
	}

	total, err := s.reservations.CountBySlot(ctx, slotID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count reservations", err)
	}

	return reservations, total, nil
}

func (s *reservationService) sanitize(req *model.ReservationRequest) {
	req.RequestToken = sanitizer.TrimAndNormalize(req.RequestToken)
	req.SlotID = sanitizer.TrimAndNormalize(req.SlotID)
	req.BookingType = sanitizer.TrimAndNormalize(req.BookingType)
	req.Contact.Name = sanitizer.NormalizeName(req.Contact.Name)
	req.Contact.Email = sanitizer.NormalizeEmail(req.Contact.Email)
	req.Contact.Phone = sanitizer.NormalizePhone(req.Contact.Phone)
	req.SpecialRequests = sanitizer.NormalizeFreeText(req.SpecialRequests)
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now().UTC()
	}
}

func (s *reservationService) trackRejected(ctx context.Context, req *model.ReservationRequest, code string) {
	s.tracker.Track(ctx, analytics.Event{
		EventType:    analytics.EventBookingRejected,
		SlotID:       req.SlotID,
		BookingType:  req.BookingType,
		RequestToken: req.RequestToken,
		Participants: req.Participants,
		Code:         code,
	})
}
