package model

import (
	"time"
)

// Booking statuses
const (
	BookingPending   = "pending"
	BookingApproved  = "approved"
	BookingRejected  = "rejected"
	BookingCancelled = "cancelled"
)

type Booking struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	GuestID    string    `json:"guest_id" bson:"guest_id" validate:"required,mongodb"`
	PropertyID string    `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	CheckIn    time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut   time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Nights     int       `json:"nights" bson:"nights" validate:"required,min=1"`
	Amount     float64   `json:"amount" bson:"amount" validate:"omitempty,gte=0"`
	Deduction  float64   `json:"deduction" bson:"deduction" validate:"omitempty,gte=0"`
	Status     string    `json:"status" bson:"status" validate:"required,oneof=pending approved rejected cancelled"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type BookingUpdate struct {
	CheckIn   *time.Time `json:"check_in,omitempty"`
	CheckOut  *time.Time `json:"check_out,omitempty"`
	Nights    *int       `json:"nights,omitempty" validate:"omitempty,min=1"`
	Amount    *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Deduction *float64   `json:"deduction,omitempty" validate:"omitempty,gte=0"`
	Status    string     `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected cancelled"`
}

// BookingDetails is a booking joined with its listing and guest summaries.
type BookingDetails struct {
	Booking  `bson:",inline"`
	Property *ListingSummary `json:"property,omitempty" bson:"property,omitempty"`
	Guest    *UserSummary    `json:"guest,omitempty" bson:"guest,omitempty"`
}

// BookingFilter narrows booking list queries.
type BookingFilter struct {
	Status     string
	GuestID    string
	PropertyID string
}

// BookingStats aggregates booking counts by status plus the financial
// sums over approved bookings.
type BookingStats struct {
	TotalBookings     int64            `json:"total_bookings"`
	ByStatus          map[string]int64 `json:"by_status"`
	ApprovedAmount    float64          `json:"approved_amount"`
	ApprovedDeduction float64          `json:"approved_deduction"`
	NetRevenue        float64          `json:"net_revenue"`
	ApprovedNights    int64            `json:"approved_nights"`
}
