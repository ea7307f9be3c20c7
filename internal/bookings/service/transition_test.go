package service

import (
	"testing"
	"time"

	"rentease/pkg/model"
)

func TestNights(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		expected int
	}{
		{
			"single night",
			time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
			1,
		},
		{
			"week long stay",
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
			7,
		},
		{
			"same day is zero nights",
			time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Nights(tt.checkIn, tt.checkOut); got != tt.expected {
				t.Errorf("Nights() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func pendingBooking() model.Booking {
	return model.Booking{
		ID:         "64b000000000000000000010",
		GuestID:    "507f1f77bcf86cd799439011",
		PropertyID: "64b000000000000000000001",
		CheckIn:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Nights:     3,
		Amount:     4500,
		Deduction:  500,
		Status:     model.BookingPending,
	}
}

func TestApplyStatusChange_ApprovalProducesLedgerEntry(t *testing.T) {
	booking := pendingBooking()
	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

	updated, entry := ApplyStatusChange(booking, model.BookingApproved, now)

	if updated.Status != model.BookingApproved {
		t.Errorf("expected approved status, got %q", updated.Status)
	}
	if entry == nil {
		t.Fatal("expected a ledger entry on approval")
	}

	if entry.BookingID != booking.ID {
		t.Errorf("expected booking_id %q, got %q", booking.ID, entry.BookingID)
	}
	if entry.Gross != 4500 {
		t.Errorf("expected gross 4500, got %v", entry.Gross)
	}
	if entry.Deduction != 500 {
		t.Errorf("expected deduction 500, got %v", entry.Deduction)
	}
	if entry.Net != 4000 {
		t.Errorf("expected net 4000, got %v", entry.Net)
	}
	if entry.Nights != 3 {
		t.Errorf("expected 3 nights, got %d", entry.Nights)
	}
	if !entry.Period.CheckIn.Equal(booking.CheckIn) || !entry.Period.CheckOut.Equal(booking.CheckOut) {
		t.Errorf("expected period to snapshot the stay window, got %+v", entry.Period)
	}
	if !entry.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, entry.CreatedAt)
	}
}

func TestApplyStatusChange_NonApprovalTransitionsHaveNoEntry(t *testing.T) {
	for _, status := range []string{model.BookingRejected, model.BookingCancelled, model.BookingPending} {
		_, entry := ApplyStatusChange(pendingBooking(), status, time.Now())
		if entry != nil {
			t.Errorf("expected no ledger entry for transition to %q", status)
		}
	}
}

func TestApplyStatusChange_ReApprovalHasNoEntry(t *testing.T) {
	booking := pendingBooking()
	booking.Status = model.BookingApproved

	_, entry := ApplyStatusChange(booking, model.BookingApproved, time.Now())
	if entry != nil {
		t.Error("expected no second ledger entry when already approved")
	}
}

func TestApplyStatusChange_DoesNotMutateInput(t *testing.T) {
	booking := pendingBooking()
	original := booking

	ApplyStatusChange(booking, model.BookingApproved, time.Now())

	if booking != original {
		t.Error("expected input booking to be untouched")
	}
}
