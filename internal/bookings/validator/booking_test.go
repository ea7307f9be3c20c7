package validator

import (
	"testing"
	"time"

	"rentease/pkg/logger"
	"rentease/pkg/model"
)

func testValidator(t *testing.T) *BookingValidator {
	t.Helper()
	return NewBookingValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	}))
}

func validBooking() *model.Booking {
	return &model.Booking{
		GuestID:    "507f1f77bcf86cd799439011",
		PropertyID: "64b000000000000000000001",
		CheckIn:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Nights:     3,
		Amount:     4500,
		Status:     model.BookingPending,
	}
}

func TestValidate(t *testing.T) {
	v := testValidator(t)

	tests := []struct {
		name    string
		mutate  func(b *model.Booking)
		wantErr bool
	}{
		{"valid booking", func(b *model.Booking) {}, false},
		{"missing guest", func(b *model.Booking) { b.GuestID = "" }, true},
		{"malformed guest id", func(b *model.Booking) { b.GuestID = "not-an-oid" }, true},
		{"missing property", func(b *model.Booking) { b.PropertyID = "" }, true},
		{"check_out before check_in", func(b *model.Booking) {
			b.CheckOut = b.CheckIn.Add(-24 * time.Hour)
		}, true},
		{"check_out equals check_in", func(b *model.Booking) { b.CheckOut = b.CheckIn }, true},
		{"missing nights", func(b *model.Booking) { b.Nights = 0 }, true},
		{"unknown status", func(b *model.Booking) { b.Status = "archived" }, true},
		{"negative deduction", func(b *model.Booking) { b.Deduction = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := validBooking()
			tt.mutate(booking)

			err := v.Validate(booking)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected valid booking, got %v", err)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := testValidator(t)

	checkIn := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	badDeduction := -50.0

	tests := []struct {
		name    string
		update  *model.BookingUpdate
		wantErr bool
	}{
		{"status only", &model.BookingUpdate{Status: model.BookingCancelled}, false},
		{"both dates valid", &model.BookingUpdate{CheckIn: &checkIn, CheckOut: &checkOut}, false},
		{"single date is deferred to merge", &model.BookingUpdate{CheckIn: &checkIn}, false},
		{"inverted dates", &model.BookingUpdate{CheckIn: &checkOut, CheckOut: &checkIn}, true},
		{"unknown status", &model.BookingUpdate{Status: "archived"}, true},
		{"negative deduction", &model.BookingUpdate{Deduction: &badDeduction}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(tt.update)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected valid update, got %v", err)
			}
		})
	}
}
