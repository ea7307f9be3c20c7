package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrInvalidDateRange = errors.New("check_out must be after check_in")

	ErrAlreadyApproved = errors.New("booking is already approved")

	ErrNotPending = errors.New("booking is no longer pending")
)
