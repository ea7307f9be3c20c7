package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrInvalidID = errors.New("invalid user ID format")

	ErrEmailTaken = errors.New("email address already registered")

	ErrBadCredentials = errors.New("invalid email or password")

	ErrNotVerified = errors.New("email address not verified")

	ErrIDNotVerified = errors.New("valid ID not yet approved")
)
