package validator

import (
	"strings"
	"testing"
	"time"

	"divebook/pkg/logger"
	"divebook/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Service: "test",
	})
}

func validRequest() *model.ReservationRequest {
	return &model.ReservationRequest{
		RequestToken: "req-2f8a91c4",
		SlotID:       "slot-2026-09-01-am",
		BookingType:  model.BookingTypeDive,
		Participants: 2,
		Contact: model.Contact{
			Name:  "Dana Reef",
			Email: "dana@example.com",
			Phone: "+201001234567",
		},
		SubmittedAt: time.Now(),
	}
}

func TestValidateRequestToken(t *testing.T) {
	v := NewReservationValidator(testLogger(), 20)

	tests := []struct {
		name      string
		token     string
		wantError bool
	}{
		{
			name:      "valid token",
			token:     "req-2f8a91c4",
			wantError: false,
		},
		{
			name:      "too short",
			token:     "abc1234",
			wantError: true,
		},
		{
			name:      "minimum length",
			token:     "abcd1234",
			wantError: false,
		},
		{
			name:      "maximum length",
			token:     strings.Repeat("a", 128),
			wantError: false,
		},
		{
			name:      "over maximum length",
			token:     strings.Repeat("a", 129),
			wantError: true,
		},
		{
			name:      "allows dots underscores dashes",
			token:     "client-42.retry_7",
			wantError: false,
		},
		{
			name:      "rejects whitespace",
			token:     "req 2f8a91c4",
			wantError: true,
		},
		{
			name:      "rejects non-ascii",
			token:     "req-2f8a91cé",
			wantError: true,
		},
		{
			name:      "empty token",
			token:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.RequestToken = tt.token

			err := v.Validate(req)
			if tt.wantError && err == nil {
				t.Errorf("expected validation error for token %q, got nil", tt.token)
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected validation error for token %q: %v", tt.token, err)
			}
		})
	}
}

func TestValidateParticipants(t *testing.T) {
	v := NewReservationValidator(testLogger(), 12)

	tests := []struct {
		name         string
		participants int
		wantError    bool
	}{
		{
			name:         "single participant",
			participants: 1,
			wantError:    false,
		},
		{
			name:         "at configured maximum",
			participants: 12,
			wantError:    false,
		},
		{
			name:         "over configured maximum",
			participants: 13,
			wantError:    true,
		},
		{
			name:         "zero participants",
			participants: 0,
			wantError:    true,
		},
		{
			name:         "negative participants",
			participants: -1,
			wantError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.Participants = tt.participants

			err := v.Validate(req)
			if tt.wantError && err == nil {
				t.Errorf("expected validation error for %d participants, got nil", tt.participants)
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected validation error for %d participants: %v", tt.participants, err)
			}
		})
	}
}

func TestValidateParticipantsCeilingIsConfigurable(t *testing.T) {
	// the configured maximum owns the ceiling; a large group booking must
	// pass when the deployment allows it
	v := NewReservationValidator(testLogger(), 30)

	req := validRequest()
	req.Participants = 25
	if err := v.Validate(req); err != nil {
		t.Errorf("unexpected validation error for 25 participants with max 30: %v", err)
	}

	req.Participants = 31
	if err := v.Validate(req); err == nil {
		t.Error("expected validation error for 31 participants with max 30")
	}
}

func TestValidateBookingType(t *testing.T) {
	v := NewReservationValidator(testLogger(), 20)

	tests := []struct {
		name        string
		bookingType string
		wantError   bool
	}{
		{
			name:        "course",
			bookingType: model.BookingTypeCourse,
			wantError:   false,
		},
		{
			name:        "dive",
			bookingType: model.BookingTypeDive,
			wantError:   false,
		},
		{
			name:        "unknown type",
			bookingType: "snorkel",
			wantError:   true,
		},
		{
			name:        "empty type",
			bookingType: "",
			wantError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.BookingType = tt.bookingType

			err := v.Validate(req)
			if tt.wantError && err == nil {
				t.Errorf("expected validation error for booking type %q, got nil", tt.bookingType)
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected validation error for booking type %q: %v", tt.bookingType, err)
			}
		})
	}
}

func TestValidateContact(t *testing.T) {
	v := NewReservationValidator(testLogger(), 20)

	tests := []struct {
		name      string
		mutate    func(*model.ReservationRequest)
		wantError bool
	}{
		{
			name:      "valid contact",
			mutate:    func(r *model.ReservationRequest) {},
			wantError: false,
		},
		{
			name:      "missing name",
			mutate:    func(r *model.ReservationRequest) { r.Contact.Name = "" },
			wantError: true,
		},
		{
			name:      "name too short",
			mutate:    func(r *model.ReservationRequest) { r.Contact.Name = "D" },
			wantError: true,
		},
		{
			name:      "invalid email",
			mutate:    func(r *model.ReservationRequest) { r.Contact.Email = "not-an-email" },
			wantError: true,
		},
		{
			name:      "missing phone",
			mutate:    func(r *model.ReservationRequest) { r.Contact.Phone = "" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.Validate(req)
			if tt.wantError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateSubmittedAtInFuture(t *testing.T) {
	v := NewReservationValidator(testLogger(), 20)

	req := validRequest()
	req.SubmittedAt = time.Now().Add(time.Hour)

	if err := v.Validate(req); err == nil {
		t.Error("expected validation error for future submitted_at, got nil")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "Participants", Message: "must be at least 1"},
		{Field: "SlotID", Message: "is required"},
	}

	msg := errs.Error()
	if !strings.Contains(msg, "2 error(s)") {
		t.Errorf("expected error count in message, got: %s", msg)
	}
	if !strings.Contains(msg, "Participants") || !strings.Contains(msg, "SlotID") {
		t.Errorf("expected field names in message, got: %s", msg)
	}
}
