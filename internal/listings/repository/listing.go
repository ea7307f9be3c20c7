package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	listingserrors "rentease/internal/listings/errors"
	"rentease/pkg/config"
	mongotx "rentease/pkg/db/mongo"
	"rentease/pkg/model"
)

const (
	CollectionName = "Listings"
)

// ListingFilter narrows listing queries.
type ListingFilter struct {
	Search          string
	Category        string
	City            string
	Province        string
	MinPrice        *float64
	MaxPrice        *float64
	UploadedBy      string
	IncludeDisabled bool
}

var allowedSortFields = map[string]bool{
	"price":      true,
	"created_at": true,
	"item_name":  true,
}

var defaultSort = bson.D{{Key: "created_at", Value: -1}}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	FindAll(ctx context.Context, filter ListingFilter, sortBy string, page int, limit int) ([]*model.Listing, error)
	Count(ctx context.Context, filter ListingFilter) (int64, error)
	UpdateFields(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.ListingStats, error)
}

type mongoListingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoListingRepository(cfg *config.Config) ListingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoListingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoListingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	listing.CreatedAt = now
	listing.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		listing.ID = oid.Hex()
	}
	return nil
}

func (r *mongoListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	var listing model.Listing
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return &listing, nil
}

func (r *mongoListingRepository) FindAll(ctx context.Context, filter ListingFilter, sortBy string, page int, limit int) ([]*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(mongotx.ParseSort(sortBy, allowedSortFields, defaultSort)).
		SetLimit(int64(limit)).
		SetSkip(int64((page - 1) * limit))

	cursor, err := r.collection.Find(ctx, buildListingFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []*model.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	return listings, nil
}

func (r *mongoListingRepository) Count(ctx context.Context, filter ListingFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildListingFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}

	return count, nil
}

func buildListingFilter(filter ListingFilter) bson.M {
	query := bson.M{}

	if !filter.IncludeDisabled {
		query["disable"] = false
	}
	if filter.Search != "" {
		query["$text"] = bson.M{"$search": filter.Search}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.City != "" {
		query["location.city"] = filter.City
	}
	if filter.Province != "" {
		query["location.province"] = filter.Province
	}
	if filter.UploadedBy != "" {
		query["uploaded_by"] = filter.UploadedBy
	}

	if filter.MinPrice != nil || filter.MaxPrice != nil {
		price := bson.M{}
		if filter.MinPrice != nil {
			price["$gte"] = *filter.MinPrice
		}
		if filter.MaxPrice != nil {
			price["$lte"] = *filter.MaxPrice
		}
		query["price"] = price
	}

	return query
}

func (r *mongoListingRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	if result.MatchedCount == 0 {
		return listingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoListingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	if result.DeletedCount == 0 {
		return listingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoListingRepository) Stats(ctx context.Context) (*model.ListingStats, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"total": bson.M{"$sum": 1},
			"disabled": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$disable", 1, 0},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate listing stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Category string `bson:"_id"`
		Total    int64  `bson:"total"`
		Disabled int64  `bson:"disabled"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode listing stats: %w", err)
	}

	stats := &model.ListingStats{ByCategory: make(map[string]int64)}
	for _, row := range rows {
		stats.TotalListings += row.Total
		stats.DisabledListings += row.Disabled
		stats.ByCategory[row.Category] = row.Total
	}
	stats.ActiveListings = stats.TotalListings - stats.DisabledListings

	return stats, nil
}
