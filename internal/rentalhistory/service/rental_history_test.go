package service

import (
	"context"
	"testing"
	"time"

	rherrors "rentease/internal/rentalhistory/errors"
	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
	"rentease/pkg/logger"
	"rentease/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockRentalHistoryRepository struct {
	insertFunc   func(ctx context.Context, entry *model.RentalHistory) error
	findByIDFunc func(ctx context.Context, id string) (*model.RentalHistoryDetails, error)
	findAllFunc  func(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, error)
	countFunc    func(ctx context.Context, filter model.RentalHistoryFilter) (int64, error)
	statsFunc    func(ctx context.Context) (*model.RentalHistoryStats, error)
	revenueFunc  func(ctx context.Context, filter model.RentalHistoryFilter) ([]*model.PropertyRevenue, error)
}

func (m *mockRentalHistoryRepository) Insert(ctx context.Context, entry *model.RentalHistory) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, entry)
	}
	return nil
}

func (m *mockRentalHistoryRepository) FindByID(ctx context.Context, id string) (*model.RentalHistoryDetails, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, rherrors.ErrNotFound
}

func (m *mockRentalHistoryRepository) FindAll(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, sortBy, page, limit)
	}
	return []*model.RentalHistoryDetails{}, nil
}

func (m *mockRentalHistoryRepository) Count(ctx context.Context, filter model.RentalHistoryFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockRentalHistoryRepository) Stats(ctx context.Context) (*model.RentalHistoryStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &model.RentalHistoryStats{}, nil
}

func (m *mockRentalHistoryRepository) Revenue(ctx context.Context, filter model.RentalHistoryFilter) ([]*model.PropertyRevenue, error) {
	if m.revenueFunc != nil {
		return m.revenueFunc(ctx, filter)
	}
	return []*model.PropertyRevenue{}, nil
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		ServiceName: "test",
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func ledgerEntry(id string) *model.RentalHistoryDetails {
	return &model.RentalHistoryDetails{
		RentalHistory: model.RentalHistory{
			ID:         id,
			BookingID:  "64b000000000000000000010",
			GuestID:    "507f1f77bcf86cd799439011",
			PropertyID: "64b000000000000000000001",
			Period: model.RentalPeriod{
				CheckIn:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				CheckOut: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
			},
			Nights:    3,
			Gross:     4500,
			Deduction: 500,
			Net:       4000,
			CreatedAt: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
		},
		Property: &model.ListingSummary{ID: "64b000000000000000000001", ItemName: "Cozy Apartment"},
		Guest:    &model.UserSummary{ID: "507f1f77bcf86cd799439011", FullName: "Juan Dela Cruz", Email: "guest@example.com"},
	}
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_ComputesNetAndInserts(t *testing.T) {
	var inserted *model.RentalHistory
	repo := &mockRentalHistoryRepository{
		insertFunc: func(ctx context.Context, entry *model.RentalHistory) error {
			entry.ID = "64b0000000000000000000a1"
			inserted = entry
			return nil
		},
	}
	svc := NewRentalHistoryService(repo, testConfig(t))

	entry := &model.RentalHistory{
		BookingID:  "64b000000000000000000010",
		GuestID:    "507f1f77bcf86cd799439011",
		PropertyID: "64b000000000000000000001",
		Period: model.RentalPeriod{
			CheckIn:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			CheckOut: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		},
		Nights:    3,
		Gross:     4500,
		Deduction: 500,
	}

	if err := svc.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if inserted == nil {
		t.Fatal("expected entry to reach the repository")
	}
	if inserted.Net != 4000 {
		t.Errorf("expected net 4000, got %v", inserted.Net)
	}
}

func TestCreate_RejectsDeductionAboveGross(t *testing.T) {
	svc := NewRentalHistoryService(&mockRentalHistoryRepository{}, testConfig(t))

	entry := &model.RentalHistory{
		BookingID:  "64b000000000000000000010",
		GuestID:    "507f1f77bcf86cd799439011",
		PropertyID: "64b000000000000000000001",
		Period: model.RentalPeriod{
			CheckIn:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			CheckOut: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		},
		Nights:    3,
		Gross:     100,
		Deduction: 500,
	}

	err := svc.Create(context.Background(), entry)
	if err == nil {
		t.Fatal("expected error for deduction above gross")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := NewRentalHistoryService(&mockRentalHistoryRepository{}, testConfig(t))

	_, err := svc.GetByID(context.Background(), "64b0000000000000000000ff")
	if err == nil {
		t.Fatal("expected error for missing entry")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestGetAll_ReturnsEntriesAndCount(t *testing.T) {
	repo := &mockRentalHistoryRepository{
		countFunc: func(ctx context.Context, filter model.RentalHistoryFilter) (int64, error) {
			return 2, nil
		},
		findAllFunc: func(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, error) {
			return []*model.RentalHistoryDetails{
				ledgerEntry("64b0000000000000000000a1"),
				ledgerEntry("64b0000000000000000000a2"),
			}, nil
		},
	}
	svc := NewRentalHistoryService(repo, testConfig(t))

	entries, total, err := svc.GetAll(context.Background(), model.RentalHistoryFilter{}, "", 1, 10)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestRevenue_ComputesGrandTotalAndPropertyCount(t *testing.T) {
	var gotFilter model.RentalHistoryFilter
	repo := &mockRentalHistoryRepository{
		revenueFunc: func(ctx context.Context, filter model.RentalHistoryFilter) ([]*model.PropertyRevenue, error) {
			gotFilter = filter
			return []*model.PropertyRevenue{
				{PropertyID: "64b000000000000000000001", Entries: 3, Nights: 9, Gross: 13500, Deduction: 1500, Net: 12000},
				{PropertyID: "64b000000000000000000002", Entries: 1, Nights: 2, Gross: 3000, Deduction: 0, Net: 3000},
			}, nil
		},
	}
	svc := NewRentalHistoryService(repo, testConfig(t))

	report, err := svc.Revenue(context.Background(), model.RentalHistoryFilter{GuestID: "507f1f77bcf86cd799439011"})
	if err != nil {
		t.Fatalf("Revenue failed: %v", err)
	}

	if gotFilter.GuestID != "507f1f77bcf86cd799439011" {
		t.Errorf("expected filter to reach the repository, got %+v", gotFilter)
	}
	if report.PropertyCount != 2 {
		t.Errorf("expected 2 properties, got %d", report.PropertyCount)
	}
	if report.GrandTotal != 15000 {
		t.Errorf("expected grand total 15000, got %v", report.GrandTotal)
	}
	if len(report.Properties) != 2 || report.Properties[0].Net != 12000 {
		t.Errorf("unexpected revenue rows: %+v", report.Properties)
	}
}

func TestExport_WritesHeaderAndRows(t *testing.T) {
	repo := &mockRentalHistoryRepository{
		countFunc: func(ctx context.Context, filter model.RentalHistoryFilter) (int64, error) {
			return 1, nil
		},
		findAllFunc: func(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, error) {
			if limit != 1 {
				t.Errorf("expected export to fetch all %d entries, got limit %d", 1, limit)
			}
			return []*model.RentalHistoryDetails{ledgerEntry("64b0000000000000000000a1")}, nil
		},
	}
	svc := NewRentalHistoryService(repo, testConfig(t))

	file, err := svc.Export(context.Background(), model.RentalHistoryFilter{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer file.Close()

	header, err := file.GetCellValue(exportSheet, "A1")
	if err != nil {
		t.Fatalf("failed to read header cell: %v", err)
	}
	if header != "Entry ID" {
		t.Errorf("expected header 'Entry ID', got %q", header)
	}

	guest, err := file.GetCellValue(exportSheet, "C2")
	if err != nil {
		t.Fatalf("failed to read guest cell: %v", err)
	}
	if guest != "Juan Dela Cruz" {
		t.Errorf("expected guest name in row 2, got %q", guest)
	}

	net, err := file.GetCellValue(exportSheet, "K2")
	if err != nil {
		t.Fatalf("failed to read net cell: %v", err)
	}
	if net != "4000" {
		t.Errorf("expected net 4000 in row 2, got %q", net)
	}
}

func TestExport_EmptyLedgerStillHasHeader(t *testing.T) {
	svc := NewRentalHistoryService(&mockRentalHistoryRepository{}, testConfig(t))

	file, err := svc.Export(context.Background(), model.RentalHistoryFilter{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d rows", len(rows))
	}
	if len(rows[0]) != len(exportHeaders) {
		t.Errorf("expected %d header columns, got %d", len(exportHeaders), len(rows[0]))
	}
}
