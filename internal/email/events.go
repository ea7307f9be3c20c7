// Package email defines the mail events published by the API and the
// senders the worker uses to deliver them.
package email

import (
	"context"
	"time"

	"rentease/pkg/kafka"
)

// Event types carried in the event-type message header.
const (
	EventUserRegistered       = "user.registered"
	EventUserIDVerified       = "user.id-verified"
	EventBookingStatusChanged = "booking.status-changed"
)

// Publisher is the producer surface the services depend on.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// VerificationEvent asks the worker to send an email-verification link.
type VerificationEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Token    string `json:"token"`
}

// IDVerifiedEvent notifies a user that an admin approved their valid ID.
type IDVerifiedEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// BookingStatusEvent notifies a guest that their booking changed status.
type BookingStatusEvent struct {
	BookingID    string    `json:"booking_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PropertyName string    `json:"property_name"`
	Status       string    `json:"status"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
}
