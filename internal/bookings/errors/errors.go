package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrSlotFull = errors.New("slot has no remaining capacity")

	ErrSlotNotFound = errors.New("slot not found")

	ErrDuplicateInFlight = errors.New("a request with this token is already in flight")

	ErrTokenNotFound = errors.New("request token not found")

	ErrAlreadyCancelled = errors.New("reservation already cancelled")
)
