package service

import (
	"time"

	"rentease/pkg/model"
)

// Nights returns the whole nights between check-in and check-out, by
// calendar day in UTC.
func Nights(checkIn, checkOut time.Time) int {
	in := checkIn.UTC().Truncate(24 * time.Hour)
	out := checkOut.UTC().Truncate(24 * time.Hour)
	return int(out.Sub(in).Hours() / 24)
}

// ApplyStatusChange computes the effect of moving a booking to a new
// status. It mutates nothing: the returned booking copy carries the new
// status, and the returned ledger entry is non-nil exactly when the
// transition is into approved. The entry snapshots the booking's
// financials so later edits to the booking never change recorded revenue.
func ApplyStatusChange(booking model.Booking, newStatus string, now time.Time) (model.Booking, *model.RentalHistory) {
	updated := booking
	updated.Status = newStatus

	if newStatus != model.BookingApproved || booking.Status == model.BookingApproved {
		return updated, nil
	}

	entry := &model.RentalHistory{
		BookingID:  booking.ID,
		GuestID:    booking.GuestID,
		PropertyID: booking.PropertyID,
		Period: model.RentalPeriod{
			CheckIn:  booking.CheckIn,
			CheckOut: booking.CheckOut,
		},
		Nights:    booking.Nights,
		Gross:     booking.Amount,
		Deduction: booking.Deduction,
		Net:       booking.Amount - booking.Deduction,
		CreatedAt: now,
	}

	return updated, entry
}
