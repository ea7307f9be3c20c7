package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rentease/internal/auth"
	bookingserrors "rentease/internal/bookings/errors"
	"rentease/internal/bookings/repository"
	"rentease/internal/bookings/validator"
	"rentease/internal/email"
	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
	"rentease/pkg/kafka"
	"rentease/pkg/model"
)

// ListingReader is the slice of the listings repository bookings need.
type ListingReader interface {
	FindByID(ctx context.Context, id string) (*model.Listing, error)
}

// UserReader resolves guest accounts for notifications.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// LedgerWriter appends rental history entries. Insert must honor the
// session context it is called with so the entry commits atomically with
// the status flip.
type LedgerWriter interface {
	Insert(ctx context.Context, entry *model.RentalHistory) error
}

type BookingService interface {
	Create(ctx context.Context, caller auth.Identity, booking *model.Booking) error
	GetByID(ctx context.Context, caller auth.Identity, id string) (*model.BookingDetails, error)
	GetAll(ctx context.Context, caller auth.Identity, filter model.BookingFilter, sortBy string, page int, limit int) ([]*model.BookingDetails, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, updates *model.BookingUpdate) (*model.BookingDetails, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
	Stats(ctx context.Context) (*model.BookingStats, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	ledger    LedgerWriter
	listings  ListingReader
	users     UserReader
	validator *validator.BookingValidator
	publisher email.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	ledger LedgerWriter,
	listings ListingReader,
	users UserReader,
	validator *validator.BookingValidator,
	publisher email.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		ledger:    ledger,
		listings:  listings,
		users:     users,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, caller auth.Identity, booking *model.Booking) error {
	// Guests always book for themselves; back-office may book on behalf
	// of another guest.
	if !auth.IsStaffOrAdmin(caller.Role) || booking.GuestID == "" {
		booking.GuestID = caller.UserID
	}
	booking.Status = model.BookingPending
	if booking.Nights == 0 {
		booking.Nights = Nights(booking.CheckIn, booking.CheckOut)
	}

	if err := s.validate(booking); err != nil {
		return err
	}

	if booking.Deduction > booking.Amount {
		return apperrors.Validation("Deduction cannot exceed the booking amount", nil)
	}

	if booking.GuestID != caller.UserID {
		if _, err := s.users.FindByID(ctx, booking.GuestID); err != nil {
			return apperrors.NotFoundWithID("Guest", booking.GuestID)
		}
	}

	listing, err := s.listings.FindByID(ctx, booking.PropertyID)
	if err != nil {
		return apperrors.NotFoundWithID("Listing", booking.PropertyID)
	}
	if listing.Disable {
		return apperrors.Conflict("This listing is not available for booking")
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"guest_id", booking.GuestID,
		"property_id", booking.PropertyID,
		"nights", booking.Nights,
		"amount", booking.Amount,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, caller auth.Identity, id string) (*model.BookingDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	details, err := s.repo.FindDetailsByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if !auth.IsStaffOrAdmin(caller.Role) && details.GuestID != caller.UserID {
		return nil, apperrors.Forbidden("You may only view your own bookings")
	}

	return details, nil
}

func (s *bookingService) GetAll(ctx context.Context, caller auth.Identity, filter model.BookingFilter, sortBy string, page int, limit int) ([]*model.BookingDetails, int64, error) {
	// Guests only ever see their own bookings.
	if !auth.IsStaffOrAdmin(caller.Role) {
		filter.GuestID = caller.UserID
	}

	var count int64
	var bookings []*model.BookingDetails
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, sortBy, page, limit)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, caller auth.Identity, id string, updates *model.BookingUpdate) (*model.BookingDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to check booking existence", err)
	}

	if err := s.authorizeUpdate(caller, existing, updates); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged, fields, err := s.merge(existing, updates)
	if err != nil {
		return nil, err
	}

	statusChanged := updates.Status != "" && updates.Status != existing.Status

	if updates.Status == model.BookingApproved {
		if err := s.approve(ctx, id, merged, fields); err != nil {
			return nil, err
		}
	} else if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return nil, apperrors.NotFoundWithID("Booking", id)
			}
			s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to update booking", err)
		}
	} else {
		return nil, apperrors.InvalidInput("No fields to update")
	}

	if statusChanged {
		s.notifyStatusChange(ctx, merged)
	}

	s.cfg.Log.Info("Booking updated", "id", id, "status", merged.Status)
	return s.GetByID(ctx, caller, id)
}

// approve flips the booking to approved and writes the ledger entry in one
// transaction. The conditional status filter makes the ledger insert
// exactly-once: a booking that is already approved matches nothing and no
// second entry is written.
func (s *bookingService) approve(ctx context.Context, id string, merged *model.Booking, fields bson.M) error {
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		statusFields := bson.M{"status": model.BookingApproved}
		for k, v := range fields {
			statusFields[k] = v
		}

		modified, err := s.repo.SetStatusUnless(sessCtx, id, model.BookingApproved, statusFields)
		if err != nil {
			return apperrors.Internal("Failed to approve booking", err)
		}

		if !modified {
			// Already approved: the ledger stays untouched, but any other
			// requested field changes still have to land.
			if len(fields) == 0 {
				return nil
			}
			if err := s.repo.UpdateFields(sessCtx, id, fields); err != nil {
				return apperrors.Internal("Failed to update booking", err)
			}
			return nil
		}

		_, entry := ApplyStatusChange(*merged, model.BookingApproved, time.Now().UTC().Truncate(time.Millisecond))
		if entry == nil {
			return nil
		}

		if err := s.ledger.Insert(sessCtx, entry); err != nil {
			return apperrors.Internal("Failed to record rental history", err)
		}

		s.cfg.Log.Info("Rental history recorded",
			"booking_id", id,
			"gross", entry.Gross,
			"net", entry.Net,
		)
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to approve booking", "id", id, "error", err)
		return err
	}

	merged.Status = model.BookingApproved
	return nil
}

func (s *bookingService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	// Ledger entries are deliberately left alone: recorded revenue
	// survives booking deletion.
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to delete booking", err)
	}

	s.cfg.Log.Info("Booking deleted", "id", id, "deleted_by", caller.UserID)
	return nil
}

func (s *bookingService) Stats(ctx context.Context) (*model.BookingStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate booking stats", "error", err)
		return nil, apperrors.Internal("Failed to compute booking statistics", err)
	}

	return stats, nil
}

// --- Helpers ---

// authorizeUpdate enforces the role gate: back-office callers may change
// anything, guests may only move or cancel their own pending booking.
func (s *bookingService) authorizeUpdate(caller auth.Identity, existing *model.Booking, updates *model.BookingUpdate) error {
	if auth.IsStaffOrAdmin(caller.Role) {
		return nil
	}

	if existing.GuestID != caller.UserID {
		return apperrors.Forbidden("You may only modify your own bookings")
	}

	if updates.Nights != nil || updates.Amount != nil || updates.Deduction != nil {
		return apperrors.Forbidden("Only staff may change booking financials")
	}

	if updates.Status != "" && updates.Status != model.BookingCancelled {
		return apperrors.Forbidden("You may only cancel your booking")
	}

	if existing.Status != model.BookingPending {
		return apperrors.Conflict("Only pending bookings can be modified")
	}

	return nil
}

// merge folds the update into a copy of the existing booking and the field
// set to persist. The merged document must still satisfy the date and
// deduction invariants.
func (s *bookingService) merge(existing *model.Booking, updates *model.BookingUpdate) (*model.Booking, bson.M, error) {
	merged := *existing
	fields := bson.M{}

	datesChanged := false
	if updates.CheckIn != nil {
		merged.CheckIn = *updates.CheckIn
		datesChanged = true
		fields["check_in"] = merged.CheckIn
	}
	if updates.CheckOut != nil {
		merged.CheckOut = *updates.CheckOut
		datesChanged = true
		fields["check_out"] = merged.CheckOut
	}

	if datesChanged && !merged.CheckOut.After(merged.CheckIn) {
		return nil, nil, apperrors.Validation(bookingserrors.ErrInvalidDateRange.Error(), nil)
	}

	if updates.Nights != nil {
		if *updates.Nights < 1 {
			return nil, nil, apperrors.Validation("Booking must span at least one night", nil)
		}
		merged.Nights = *updates.Nights
		fields["nights"] = merged.Nights
	}
	if updates.Amount != nil {
		merged.Amount = *updates.Amount
		fields["amount"] = merged.Amount
	}

	if updates.Deduction != nil {
		merged.Deduction = *updates.Deduction
		fields["deduction"] = merged.Deduction
	}
	if merged.Deduction > merged.Amount {
		return nil, nil, apperrors.Validation("Deduction cannot exceed the booking amount", nil)
	}

	if updates.Status != "" && updates.Status != model.BookingApproved {
		merged.Status = updates.Status
		fields["status"] = updates.Status
	}

	return &merged, fields, nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) notifyStatusChange(ctx context.Context, booking *model.Booking) {
	guest, err := s.users.FindByID(ctx, booking.GuestID)
	if err != nil {
		s.cfg.Log.Warn("Failed to load guest for notification", "guest_id", booking.GuestID, "error", err)
		return
	}

	propertyName := booking.PropertyID
	if listing, err := s.listings.FindByID(ctx, booking.PropertyID); err == nil {
		propertyName = listing.ItemName
	}

	msg := kafka.NewMessage().
		WithKey(booking.GuestID).
		WithEventType(email.EventBookingStatusChanged).
		WithSource(s.cfg.ServiceName).
		WithValue(email.BookingStatusEvent{
			BookingID:    booking.ID,
			Email:        guest.Email,
			FullName:     guest.FullName,
			PropertyName: propertyName,
			Status:       booking.Status,
			CheckIn:      booking.CheckIn,
			CheckOut:     booking.CheckOut,
		}).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish booking status event", "booking_id", booking.ID, "error", err)
	}
}
