package model

import "time"

const (
	TokenStateInFlight  = "in_flight"
	TokenStateConfirmed = "confirmed"
	TokenStateRejected  = "rejected"
)

// TokenRecord tracks the resolution state of one idempotency token. The
// token is the document ID, so inserting a record is the "at most one Fresh"
// admission check. The in_flight -> confirmed/rejected transition is
// write-once; a resolved record never goes back to in_flight.
type TokenRecord struct {
	Token         string    `json:"token" bson:"_id"`
	SlotID        string    `json:"slot_id" bson:"slot_id"`
	Participants  int       `json:"participants" bson:"participants"`
	State         string    `json:"state" bson:"state"`
	ReservationID string    `json:"reservation_id,omitempty" bson:"reservation_id,omitempty"`
	RejectCode    string    `json:"reject_code,omitempty" bson:"reject_code,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}
