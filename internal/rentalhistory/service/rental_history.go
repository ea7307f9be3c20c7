package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	rherrors "rentease/internal/rentalhistory/errors"
	"rentease/internal/rentalhistory/repository"
	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
	"rentease/pkg/model"
)

const exportSheet = "Rental History"

type RentalHistoryService interface {
	Create(ctx context.Context, entry *model.RentalHistory) error
	GetByID(ctx context.Context, id string) (*model.RentalHistoryDetails, error)
	GetAll(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, int64, error)
	Stats(ctx context.Context) (*model.RentalHistoryStats, error)
	Revenue(ctx context.Context, filter model.RentalHistoryFilter) (*model.RevenueReport, error)
	Export(ctx context.Context, filter model.RentalHistoryFilter) (*excelize.File, error)
}

type rentalHistoryService struct {
	repo repository.RentalHistoryRepository
	cfg  *config.Config
}

func NewRentalHistoryService(repo repository.RentalHistoryRepository, cfg *config.Config) RentalHistoryService {
	return &rentalHistoryService{
		repo: repo,
		cfg:  cfg,
	}
}

// Create appends an entry directly, outside the booking approval path.
// Used by back-office corrections for rentals settled off-platform.
func (s *rentalHistoryService) Create(ctx context.Context, entry *model.RentalHistory) error {
	if entry.Nights < 1 {
		return apperrors.Validation("Entry must span at least one night", nil)
	}
	if !entry.Period.CheckOut.After(entry.Period.CheckIn) {
		return apperrors.Validation("check_out must be after check_in", nil)
	}
	if entry.Gross < 0 || entry.Deduction < 0 {
		return apperrors.Validation("Amounts must not be negative", nil)
	}
	if entry.Deduction > entry.Gross {
		return apperrors.Validation("Deduction cannot exceed gross", nil)
	}
	if entry.BookingID == "" || entry.GuestID == "" || entry.PropertyID == "" {
		return apperrors.Validation("booking_id, guest_id and property_id are required", nil)
	}

	entry.Net = entry.Gross - entry.Deduction

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.cfg.Log.Error("Failed to insert rental history entry", "error", err)
		return apperrors.Internal("Failed to record rental history entry", err)
	}

	s.cfg.Log.Info("Rental history entry recorded",
		"id", entry.ID,
		"booking_id", entry.BookingID,
		"net", entry.Net,
	)
	return nil
}

func (s *rentalHistoryService) GetByID(ctx context.Context, id string) (*model.RentalHistoryDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rental history ID cannot be empty")
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, rherrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Rental history entry", id)
		}
		if errors.Is(err, rherrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid rental history ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve rental history entry", err)
	}

	return entry, nil
}

func (s *rentalHistoryService) GetAll(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, int64, error) {
	var count int64
	var entries []*model.RentalHistoryDetails
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count rental history", "error", errCount)
			errCount = apperrors.Internal("Failed to count rental history", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		entries, errFind = s.repo.FindAll(ctx, filter, sortBy, page, limit)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list rental history", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rental history", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return entries, count, nil
}

func (s *rentalHistoryService) Stats(ctx context.Context) (*model.RentalHistoryStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate rental history stats", "error", err)
		return nil, apperrors.Internal("Failed to compute rental history statistics", err)
	}

	return stats, nil
}

func (s *rentalHistoryService) Revenue(ctx context.Context, filter model.RentalHistoryFilter) (*model.RevenueReport, error) {
	rows, err := s.repo.Revenue(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate revenue", "error", err)
		return nil, apperrors.Internal("Failed to compute revenue", err)
	}

	report := &model.RevenueReport{
		Properties:    rows,
		PropertyCount: len(rows),
	}
	for _, row := range rows {
		report.GrandTotal += row.Net
	}

	return report, nil
}

var exportHeaders = []string{
	"Entry ID", "Booking ID", "Guest", "Guest Email", "Property",
	"Check In", "Check Out", "Nights", "Gross", "Deduction", "Net", "Recorded At",
}

// Export renders the full ledger matching the filter as a spreadsheet.
func (s *rentalHistoryService) Export(ctx context.Context, filter model.RentalHistoryFilter) (*excelize.File, error) {
	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Failed to count rental history for export", err)
	}

	var entries []*model.RentalHistoryDetails
	if count > 0 {
		entries, err = s.repo.FindAll(ctx, filter, "created_at", 1, int(count))
		if err != nil {
			return nil, apperrors.Internal("Failed to load rental history for export", err)
		}
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, apperrors.Internal("Failed to create export sheet", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.cfg.Log.Warn("Failed to drop default sheet", "error", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, apperrors.Internal("Failed to build export header", err)
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, apperrors.Internal("Failed to write export header", err)
		}
	}

	for i, entry := range entries {
		row := i + 2

		guestName, guestEmail := entry.GuestID, ""
		if entry.Guest != nil {
			guestName = entry.Guest.FullName
			guestEmail = entry.Guest.Email
		}
		propertyName := entry.PropertyID
		if entry.Property != nil {
			propertyName = entry.Property.ItemName
		}

		values := []any{
			entry.ID,
			entry.BookingID,
			guestName,
			guestEmail,
			propertyName,
			entry.Period.CheckIn.Format("2006-01-02"),
			entry.Period.CheckOut.Format("2006-01-02"),
			entry.Nights,
			entry.Gross,
			entry.Deduction,
			entry.Net,
			entry.CreatedAt.Format(time.RFC3339),
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, apperrors.Internal("Failed to build export row", err)
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, apperrors.Internal(fmt.Sprintf("Failed to write export row %d", row), err)
			}
		}
	}

	s.cfg.Log.Info("Rental history exported", "entries", len(entries))
	return f, nil
}
