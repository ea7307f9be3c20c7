package errors

import "errors"

var (
	ErrNotFound = errors.New("listing not found")

	ErrInvalidID = errors.New("invalid listing ID format")

	ErrLastImage = errors.New("a listing must keep at least one image")
)
