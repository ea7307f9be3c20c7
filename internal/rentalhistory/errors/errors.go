package errors

import "errors"

var (
	ErrNotFound  = errors.New("rental history entry not found")
	ErrInvalidID = errors.New("invalid rental history ID format")
)
