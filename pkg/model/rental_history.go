package model

import (
	"time"
)

// RentalPeriod is the stay window snapshotted into the ledger.
type RentalPeriod struct {
	CheckIn  time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
}

// RentalHistory is an immutable ledger entry written exactly once when a
// booking is approved. It snapshots the booking's financials so later
// booking mutations or deletions never rewrite revenue.
type RentalHistory struct {
	ID         string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BookingID  string       `json:"booking_id" bson:"booking_id" validate:"required,mongodb"`
	GuestID    string       `json:"guest_id" bson:"guest_id" validate:"required,mongodb"`
	PropertyID string       `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	Period     RentalPeriod `json:"period" bson:"period" validate:"required"`
	Nights     int          `json:"nights" bson:"nights" validate:"required,min=1"`
	Gross      float64      `json:"gross" bson:"gross" validate:"gte=0"`
	Deduction  float64      `json:"deduction" bson:"deduction" validate:"gte=0"`
	Net        float64      `json:"net" bson:"net"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// RentalHistoryDetails is a ledger entry joined with listing and guest
// summaries.
type RentalHistoryDetails struct {
	RentalHistory `bson:",inline"`
	Property      *ListingSummary `json:"property,omitempty" bson:"property,omitempty"`
	Guest         *UserSummary    `json:"guest,omitempty" bson:"guest,omitempty"`
}

// RentalHistoryFilter narrows ledger list queries.
type RentalHistoryFilter struct {
	GuestID    string
	PropertyID string
}

// RentalHistoryStats aggregates the ledger for the admin dashboard.
type RentalHistoryStats struct {
	TotalEntries   int64   `json:"total_entries" bson:"total_entries"`
	TotalGross     float64 `json:"total_gross" bson:"total_gross"`
	TotalDeduction float64 `json:"total_deduction" bson:"total_deduction"`
	TotalNet       float64 `json:"total_net" bson:"total_net"`
	TotalNights    int64   `json:"total_nights" bson:"total_nights"`
	UniqueGuests   int64   `json:"unique_guests" bson:"unique_guests"`
	UniqueListings int64   `json:"unique_listings" bson:"unique_listings"`
}

// PropertyRevenue is one row of the per-property revenue rollup.
type PropertyRevenue struct {
	PropertyID string          `json:"property_id" bson:"_id"`
	Property   *ListingSummary `json:"property,omitempty" bson:"property,omitempty"`
	Entries    int64           `json:"entries" bson:"entries"`
	Nights     int64           `json:"nights" bson:"nights"`
	Gross      float64         `json:"gross" bson:"gross"`
	Deduction  float64         `json:"deduction" bson:"deduction"`
	Net        float64         `json:"net" bson:"net"`
}

// RevenueReport is the rollup plus the totals across every property.
type RevenueReport struct {
	Properties    []*PropertyRevenue `json:"properties"`
	PropertyCount int                `json:"property_count"`
	GrandTotal    float64            `json:"grand_total"`
}
