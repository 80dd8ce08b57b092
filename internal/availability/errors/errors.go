package errors

import "errors"

var (
	ErrInvalidRange = errors.New("availability range end must be after start")

	ErrSlotNotFound = errors.New("slot not found")
)
