package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/google/uuid"

	listingserrors "rentease/internal/listings/errors"
	"rentease/internal/listings/repository"
	"rentease/internal/listings/validator"
	"rentease/pkg/blob"
	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
	"rentease/pkg/model"
	"rentease/pkg/sanitizer"
)

type ListingService interface {
	Create(ctx context.Context, listing *model.Listing, images []model.ImageUpload) error
	GetByID(ctx context.Context, id string, includeDisabled bool) (*model.Listing, error)
	GetAll(ctx context.Context, filter repository.ListingFilter, sortBy string, page int, limit int) ([]*model.Listing, int64, error)
	Update(ctx context.Context, id string, updates *model.ListingUpdate) (*model.Listing, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.ListingStats, error)
}

type listingService struct {
	repo      repository.ListingRepository
	validator *validator.ListingValidator
	blobs     blob.Store
	cfg       *config.Config
}

func NewListingService(
	repo repository.ListingRepository,
	validator *validator.ListingValidator,
	blobs blob.Store,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:      repo,
		validator: validator,
		blobs:     blobs,
		cfg:       cfg,
	}
}

func (s *listingService) Create(ctx context.Context, listing *model.Listing, images []model.ImageUpload) error {
	s.sanitize(listing)

	if len(images) == 0 {
		return apperrors.Validation("A listing requires at least one image", nil)
	}

	keys, err := s.storeImages(images)
	if err != nil {
		return err
	}
	listing.Pictures = keys
	listing.Disable = false

	if err := s.validate(listing); err != nil {
		s.deleteBlobs(keys)
		return err
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		// Orphaned blobs are worse than a failed request; clean up.
		s.deleteBlobs(keys)
		s.cfg.Log.Error("Failed to create listing", "error", err)
		return apperrors.Internal("Failed to create listing", err)
	}

	s.cfg.Log.Info("Listing created",
		"id", listing.ID,
		"item_name", listing.ItemName,
		"category", listing.Category,
		"uploaded_by", listing.UploadedBy,
	)
	return nil
}

func (s *listingService) GetByID(ctx context.Context, id string, includeDisabled bool) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		if errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid listing ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}

	if listing.Disable && !includeDisabled {
		return nil, apperrors.NotFoundWithID("Listing", id)
	}

	return listing, nil
}

func (s *listingService) GetAll(ctx context.Context, filter repository.ListingFilter, sortBy string, page int, limit int) ([]*model.Listing, int64, error) {
	var count int64
	var listings []*model.Listing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count listings", "error", errCount)
			errCount = apperrors.Internal("Failed to count listings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		listings, errFind = s.repo.FindAll(ctx, filter, sortBy, page, limit)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list listings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve listings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return listings, count, nil
}

func (s *listingService) Update(ctx context.Context, id string, updates *model.ListingUpdate) (*model.Listing, error) {
	existing, err := s.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Listing update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	fields := s.buildUpdateFields(updates)

	pictures, addedKeys, removedKeys, err := s.applyImageChanges(existing.Pictures, updates)
	if err != nil {
		return nil, err
	}
	if addedKeys != nil || removedKeys != nil {
		fields["pictures"] = pictures
	}

	if len(fields) == 0 {
		return nil, apperrors.InvalidInput("No fields to update")
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		s.deleteBlobs(addedKeys)
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		s.cfg.Log.Error("Failed to update listing", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update listing", err)
	}

	// Removed images are deleted only after the document update lands.
	s.deleteBlobs(removedKeys)

	s.cfg.Log.Info("Listing updated", "id", id)
	return s.GetByID(ctx, id, true)
}

func (s *listingService) Delete(ctx context.Context, id string) error {
	listing, err := s.GetByID(ctx, id, true)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Listing", id)
		}
		s.cfg.Log.Error("Failed to delete listing", "id", id, "error", err)
		return apperrors.Internal("Failed to delete listing", err)
	}

	s.deleteBlobs(listing.Pictures)

	s.cfg.Log.Info("Listing deleted", "id", id)
	return nil
}

func (s *listingService) Stats(ctx context.Context) (*model.ListingStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate listing stats", "error", err)
		return nil, apperrors.Internal("Failed to compute listing statistics", err)
	}

	return stats, nil
}

// --- Helpers ---

func (s *listingService) sanitize(l *model.Listing) {
	l.ItemName = sanitizer.NormalizeLabel(l.ItemName)
	l.Description = sanitizer.TrimAndNormalize(l.Description)
	l.Location.Barangay = sanitizer.NormalizeLabel(l.Location.Barangay)
	l.Location.City = sanitizer.NormalizeLabel(l.Location.City)
	l.Location.Province = sanitizer.NormalizeLabel(l.Location.Province)
}

func (s *listingService) validate(listing *model.Listing) error {
	if err := s.validator.Validate(listing); err != nil {
		s.cfg.Log.Warn("Listing validation failed", "error", err)
		return apperrors.Validation("Listing validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *listingService) buildUpdateFields(updates *model.ListingUpdate) bson.M {
	fields := bson.M{}

	if updates.ItemName != "" {
		fields["item_name"] = sanitizer.NormalizeLabel(updates.ItemName)
	}
	if updates.Description != "" {
		fields["description"] = sanitizer.TrimAndNormalize(updates.Description)
	}
	if updates.Category != "" {
		fields["category"] = updates.Category
	}
	if updates.Price != nil {
		fields["price"] = *updates.Price
	}
	if updates.Location != nil {
		loc := *updates.Location
		loc.Barangay = sanitizer.NormalizeLabel(loc.Barangay)
		loc.City = sanitizer.NormalizeLabel(loc.City)
		loc.Province = sanitizer.NormalizeLabel(loc.Province)
		fields["location"] = loc
	}
	if updates.Rooms != nil {
		fields["rooms"] = *updates.Rooms
	}
	if updates.Bed != nil {
		fields["bed"] = *updates.Bed
	}
	if updates.Bathroom != nil {
		fields["bathroom"] = *updates.Bathroom
	}
	if updates.Disable != nil {
		fields["disable"] = *updates.Disable
	}

	return fields
}

// applyImageChanges computes the post-update picture set. New uploads are
// stored before the document write; the caller removes replaced blobs after
// it succeeds.
func (s *listingService) applyImageChanges(current []string, updates *model.ListingUpdate) (pictures []string, added []string, removed []string, err error) {
	if len(updates.AddImages) == 0 && len(updates.RemoveImages) == 0 {
		return current, nil, nil, nil
	}

	removeSet := make(map[string]bool, len(updates.RemoveImages))
	for _, key := range updates.RemoveImages {
		removeSet[key] = true
	}

	pictures = make([]string, 0, len(current))
	for _, key := range current {
		if removeSet[key] {
			removed = append(removed, key)
			continue
		}
		pictures = append(pictures, key)
	}

	if len(removed) != len(removeSet) {
		return nil, nil, nil, apperrors.InvalidInput("One or more images to remove do not belong to this listing")
	}

	if len(updates.AddImages) > 0 {
		added, err = s.storeImages(updates.AddImages)
		if err != nil {
			return nil, nil, nil, err
		}
		pictures = append(pictures, added...)
	}

	if len(pictures) == 0 {
		s.deleteBlobs(added)
		return nil, nil, nil, apperrors.Validation(listingserrors.ErrLastImage.Error(), nil)
	}

	return pictures, added, removed, nil
}

func (s *listingService) storeImages(images []model.ImageUpload) ([]string, error) {
	keys := make([]string, 0, len(images))

	for _, img := range images {
		ext, err := blob.ImageExtension(img.FileName)
		if err != nil {
			s.deleteBlobs(keys)
			return nil, apperrors.InvalidInput(err.Error())
		}

		data, err := blob.DecodeImage(img.Data)
		if err != nil {
			s.deleteBlobs(keys)
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s: %v", img.FileName, err))
		}

		key := fmt.Sprintf("listings/%s%s", uuid.New().String(), ext)
		if err := s.blobs.Save(key, data); err != nil {
			s.deleteBlobs(keys)
			s.cfg.Log.Error("Failed to store listing image", "file_name", img.FileName, "error", err)
			return nil, apperrors.Internal("Failed to store image", err)
		}

		keys = append(keys, key)
	}

	return keys, nil
}

func (s *listingService) deleteBlobs(keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(key); err != nil {
			s.cfg.Log.Warn("Failed to delete blob", "key", key, "error", err)
		}
	}
}
