package service

import (
	"context"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	listingserrors "rentease/internal/listings/errors"
	"rentease/internal/listings/repository"
	"rentease/internal/listings/validator"
	"rentease/pkg/blob"
	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
	"rentease/pkg/logger"
	"rentease/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockListingRepository struct {
	createFunc       func(ctx context.Context, listing *model.Listing) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Listing, error)
	updateFieldsFunc func(ctx context.Context, id string, fields bson.M) error
	deleteFunc       func(ctx context.Context, id string) error
}

func (m *mockListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, listing)
	}
	listing.ID = "64b000000000000000000001"
	return nil
}

func (m *mockListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, listingserrors.ErrNotFound
}

func (m *mockListingRepository) FindAll(ctx context.Context, filter repository.ListingFilter, sortBy string, page int, limit int) ([]*model.Listing, error) {
	return []*model.Listing{}, nil
}

func (m *mockListingRepository) Count(ctx context.Context, filter repository.ListingFilter) (int64, error) {
	return 0, nil
}

func (m *mockListingRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	if m.updateFieldsFunc != nil {
		return m.updateFieldsFunc(ctx, id, fields)
	}
	return nil
}

func (m *mockListingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockListingRepository) Stats(ctx context.Context) (*model.ListingStats, error) {
	return &model.ListingStats{}, nil
}

type mockBlobStore struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{saved: make(map[string][]byte)}
}

func (m *mockBlobStore) Save(key string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[key] = data
	return nil
}

func (m *mockBlobStore) Open(key string) (io.ReadCloser, error) {
	return nil, blob.ErrNotFound
}

func (m *mockBlobStore) Delete(key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockBlobStore) Exists(key string) bool {
	_, ok := m.saved[key]
	return ok
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func newTestService(t *testing.T, repo *mockListingRepository, blobs *mockBlobStore) ListingService {
	t.Helper()

	cfg := testConfig(t)
	return NewListingService(repo, validator.NewListingValidator(cfg.Log), blobs, cfg)
}

func testImage(t *testing.T, name string) model.ImageUpload {
	t.Helper()

	return model.ImageUpload{
		FileName: name,
		Data:     base64.StdEncoding.EncodeToString([]byte("fake-image-bytes")),
	}
}

func testListing() *model.Listing {
	return &model.Listing{
		ItemName:    "Cozy Apartment",
		Description: "Two-bedroom unit near the plaza",
		Category:    model.CategoryApartment,
		Price:       1500,
		Location:    model.Location{City: "Cebu City", Province: "Cebu"},
		UploadedBy:  "507f1f77bcf86cd799439011",
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_StoresImagesAndListing(t *testing.T) {
	repo := &mockListingRepository{}
	blobs := newMockBlobStore()
	svc := newTestService(t, repo, blobs)

	listing := testListing()
	images := []model.ImageUpload{testImage(t, "front.jpg"), testImage(t, "back.png")}

	if err := svc.Create(context.Background(), listing, images); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(listing.Pictures) != 2 {
		t.Errorf("expected 2 picture keys, got %d", len(listing.Pictures))
	}
	if len(blobs.saved) != 2 {
		t.Errorf("expected 2 blobs stored, got %d", len(blobs.saved))
	}
}

func TestCreate_RequiresAtLeastOneImage(t *testing.T) {
	svc := newTestService(t, &mockListingRepository{}, newMockBlobStore())

	err := svc.Create(context.Background(), testListing(), nil)
	if err == nil {
		t.Fatal("expected error for listing without images")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_RejectsUnsupportedImageType(t *testing.T) {
	blobs := newMockBlobStore()
	svc := newTestService(t, &mockListingRepository{}, blobs)

	err := svc.Create(context.Background(), testListing(), []model.ImageUpload{testImage(t, "malware.exe")})
	if err == nil {
		t.Fatal("expected error for unsupported image type")
	}

	if len(blobs.saved) != 0 {
		t.Errorf("expected no blobs to remain, got %d", len(blobs.saved))
	}
}

func TestCreate_CleansUpBlobsOnInsertFailure(t *testing.T) {
	repo := &mockListingRepository{
		createFunc: func(ctx context.Context, listing *model.Listing) error {
			return context.DeadlineExceeded
		},
	}
	blobs := newMockBlobStore()
	svc := newTestService(t, repo, blobs)

	err := svc.Create(context.Background(), testListing(), []model.ImageUpload{testImage(t, "front.jpg")})
	if err == nil {
		t.Fatal("expected error when insert fails")
	}

	if len(blobs.deleted) != 1 {
		t.Errorf("expected 1 compensating blob delete, got %d", len(blobs.deleted))
	}
}

// ────────────────────────────────────────────────
// Update image invariant
// ────────────────────────────────────────────────

func existingListing() *model.Listing {
	return &model.Listing{
		ID:          "64b000000000000000000001",
		ItemName:    "Cozy Apartment",
		Description: "Two-bedroom unit near the plaza",
		Category:    model.CategoryApartment,
		Price:       1500,
		Location:    model.Location{City: "Cebu City", Province: "Cebu"},
		Pictures:    []string{"listings/a.jpg"},
		UploadedBy:  "507f1f77bcf86cd799439011",
	}
}

func TestUpdate_RejectsRemovingLastImage(t *testing.T) {
	repo := &mockListingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			return existingListing(), nil
		},
	}
	svc := newTestService(t, repo, newMockBlobStore())

	_, err := svc.Update(context.Background(), "64b000000000000000000001", &model.ListingUpdate{
		RemoveImages: []string{"listings/a.jpg"},
	})
	if err == nil {
		t.Fatal("expected error when removing the last image")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_AllowsReplacingLastImage(t *testing.T) {
	var updated bson.M
	repo := &mockListingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			return existingListing(), nil
		},
		updateFieldsFunc: func(ctx context.Context, id string, fields bson.M) error {
			updated = fields
			return nil
		},
	}
	blobs := newMockBlobStore()
	svc := newTestService(t, repo, blobs)

	_, err := svc.Update(context.Background(), "64b000000000000000000001", &model.ListingUpdate{
		AddImages:    []model.ImageUpload{testImage(t, "new.jpg")},
		RemoveImages: []string{"listings/a.jpg"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	pictures, ok := updated["pictures"].([]string)
	if !ok || len(pictures) != 1 {
		t.Fatalf("expected 1 picture after replacement, got %v", updated["pictures"])
	}
	if pictures[0] == "listings/a.jpg" {
		t.Error("expected the old picture key to be replaced")
	}

	// Old blob is removed only after the document update.
	if len(blobs.deleted) != 1 || blobs.deleted[0] != "listings/a.jpg" {
		t.Errorf("expected old blob to be deleted, got %v", blobs.deleted)
	}
}

func TestUpdate_RejectsForeignImageKeys(t *testing.T) {
	repo := &mockListingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			return existingListing(), nil
		},
	}
	svc := newTestService(t, repo, newMockBlobStore())

	_, err := svc.Update(context.Background(), "64b000000000000000000001", &model.ListingUpdate{
		RemoveImages: []string{"listings/other.jpg"},
	})
	if err == nil {
		t.Fatal("expected error for removing an image the listing does not own")
	}
}

// ────────────────────────────────────────────────
// Delete
// ────────────────────────────────────────────────

func TestDelete_RemovesBlobs(t *testing.T) {
	repo := &mockListingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			l := existingListing()
			l.Pictures = []string{"listings/a.jpg", "listings/b.jpg"}
			return l, nil
		},
	}
	blobs := newMockBlobStore()
	svc := newTestService(t, repo, blobs)

	if err := svc.Delete(context.Background(), "64b000000000000000000001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(blobs.deleted) != 2 {
		t.Errorf("expected 2 blob deletes, got %d", len(blobs.deleted))
	}
}

func TestGetByID_HidesDisabledFromGuests(t *testing.T) {
	repo := &mockListingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			l := existingListing()
			l.Disable = true
			return l, nil
		},
	}
	svc := newTestService(t, repo, newMockBlobStore())

	if _, err := svc.GetByID(context.Background(), "64b000000000000000000001", false); err == nil {
		t.Fatal("expected disabled listing to be hidden")
	}

	if _, err := svc.GetByID(context.Background(), "64b000000000000000000001", true); err != nil {
		t.Fatalf("expected staff to see disabled listing, got %v", err)
	}
}
