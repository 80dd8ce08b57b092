package model

import "time"

const (
	BookingTypeCourse = "course"
	BookingTypeDive   = "dive"
)

// Slot is a bookable time window for one booking type. Capacity and the
// window come from the calendar provider; Reserved is the confirmed
// participant count tracked locally.
type Slot struct {
	ID          string    `json:"id" bson:"_id"`
	BookingType string    `json:"booking_type" bson:"booking_type"`
	StartTime   time.Time `json:"start_time" bson:"start_time"`
	EndTime     time.Time `json:"end_time" bson:"end_time"`
	Capacity    int       `json:"capacity" bson:"capacity"`
	Reserved    int       `json:"reserved" bson:"reserved"`
	Full        bool      `json:"full" bson:"-"`
	Stale       bool      `json:"stale,omitempty" bson:"-"`
}

// Remaining returns how many participants the slot can still take.
func (s *Slot) Remaining() int {
	if s.Reserved >= s.Capacity {
		return 0
	}
	return s.Capacity - s.Reserved
}

// SlotCounter is the locally owned capacity record for a slot. Reserved is
// only ever changed through conditional updates that keep
// 0 <= reserved <= capacity.
type SlotCounter struct {
	SlotID    string    `json:"slot_id" bson:"_id"`
	Capacity  int       `json:"capacity" bson:"capacity"`
	Reserved  int       `json:"reserved" bson:"reserved"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
