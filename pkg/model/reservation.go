package model

import "time"

const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

// Contact identifies the person a reservation is held for.
type Contact struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=255"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone" bson:"phone" validate:"required,min=8,max=50"`
}

// ReservationRequest is a client-submitted intent to occupy a slot. It is
// immutable once created; a retry carries the same RequestToken and
// supersedes, never mutates, the original submission.
type ReservationRequest struct {
	RequestToken    string    `json:"request_token" bson:"request_token" validate:"required,request_token"`
	SlotID          string    `json:"slot_id" bson:"slot_id" validate:"required"`
	BookingType     string    `json:"booking_type" bson:"booking_type" validate:"required,oneof=course dive"`
	Participants    int       `json:"participants" bson:"participants" validate:"required,min=1"`
	Contact         Contact   `json:"contact" bson:"contact" validate:"required"`
	SpecialRequests string    `json:"special_requests,omitempty" bson:"special_requests,omitempty" validate:"omitempty,max=1000"`
	SubmittedAt     time.Time `json:"submitted_at,omitempty" bson:"submitted_at"`
}

// Reservation is the durable outcome of a successful request. The ID is
// assigned by the coordinator, never by the client.
type Reservation struct {
	ID           string    `json:"id" bson:"_id"`
	SlotID       string    `json:"slot_id" bson:"slot_id"`
	RequestToken string    `json:"request_token" bson:"request_token"`
	BookingType  string    `json:"booking_type" bson:"booking_type"`
	Participants int       `json:"participants" bson:"participants"`
	Contact      Contact   `json:"contact" bson:"contact"`
	Status       string    `json:"status" bson:"status"`
	ExternalRef  string    `json:"external_ref,omitempty" bson:"external_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
