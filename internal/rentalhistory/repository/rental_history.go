package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	rherrors "rentease/internal/rentalhistory/errors"
	"rentease/pkg/config"
	mongotx "rentease/pkg/db/mongo"
	"rentease/pkg/model"
)

const (
	CollectionName = "RentalHistories"

	usersCollection    = "Users"
	listingsCollection = "Listings"
)

var allowedSortFields = map[string]bool{
	"created_at": true,
	"gross":      true,
	"net":        true,
	"nights":     true,
}

var defaultSort = bson.D{{Key: "created_at", Value: -1}}

type RentalHistoryRepository interface {
	// Insert honors a session context so the entry commits atomically with
	// the booking approval that produced it.
	Insert(ctx context.Context, entry *model.RentalHistory) error
	FindByID(ctx context.Context, id string) (*model.RentalHistoryDetails, error)
	FindAll(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, error)
	Count(ctx context.Context, filter model.RentalHistoryFilter) (int64, error)
	Stats(ctx context.Context) (*model.RentalHistoryStats, error)
	Revenue(ctx context.Context, filter model.RentalHistoryFilter) ([]*model.PropertyRevenue, error)
}

type mongoRentalHistoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRentalHistoryRepository(cfg *config.Config) RentalHistoryRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoRentalHistoryRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRentalHistoryRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoRentalHistoryRepository) Insert(ctx context.Context, entry *model.RentalHistory) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to insert rental history entry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRentalHistoryRepository) FindByID(ctx context.Context, id string) (*model.RentalHistoryDetails, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rherrors.ErrInvalidID, id)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": objectID}}},
	}
	pipeline = append(pipeline, joinStages()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to find rental history entry: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*model.RentalHistoryDetails
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode rental history entry: %w", err)
	}

	if len(results) == 0 {
		return nil, rherrors.ErrNotFound
	}

	return results[0], nil
}

func (r *mongoRentalHistoryRepository) FindAll(ctx context.Context, filter model.RentalHistoryFilter, sortBy string, page int, limit int) ([]*model.RentalHistoryDetails, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$sort", Value: mongotx.ParseSort(sortBy, allowedSortFields, defaultSort)}},
		{{Key: "$skip", Value: int64((page - 1) * limit)}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	pipeline = append(pipeline, joinStages()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list rental history: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.RentalHistoryDetails
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode rental history: %w", err)
	}

	return entries, nil
}

func (r *mongoRentalHistoryRepository) Count(ctx context.Context, filter model.RentalHistoryFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count rental history: %w", err)
	}

	return count, nil
}

func buildFilter(filter model.RentalHistoryFilter) bson.M {
	query := bson.M{}

	if filter.GuestID != "" {
		query["guest_id"] = filter.GuestID
	}
	if filter.PropertyID != "" {
		query["property_id"] = filter.PropertyID
	}

	return query
}

// joinStages resolves the hex-string property_id and guest_id references
// into listing and user summaries.
func joinStages() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from": listingsCollection,
			"let":  bson.M{"pid": bson.M{"$toObjectId": "$property_id"}},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$pid"}}}},
				bson.M{"$project": bson.M{
					"_id":       bson.M{"$toString": "$_id"},
					"item_name": 1,
					"category":  1,
					"price":     1,
					"location":  1,
				}},
			},
			"as": "property",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$property", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from": usersCollection,
			"let":  bson.M{"gid": bson.M{"$toObjectId": "$guest_id"}},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$gid"}}}},
				bson.M{"$project": bson.M{
					"_id":       bson.M{"$toString": "$_id"},
					"full_name": 1,
					"email":     1,
				}},
			},
			"as": "guest",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$guest", "preserveNullAndEmptyArrays": true}}},
	}
}

func (r *mongoRentalHistoryRepository) Stats(ctx context.Context) (*model.RentalHistoryStats, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":             nil,
			"total_entries":   bson.M{"$sum": 1},
			"total_gross":     bson.M{"$sum": "$gross"},
			"total_deduction": bson.M{"$sum": "$deduction"},
			"total_net":       bson.M{"$sum": "$net"},
			"total_nights":    bson.M{"$sum": "$nights"},
			"guests":          bson.M{"$addToSet": "$guest_id"},
			"listings":        bson.M{"$addToSet": "$property_id"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":             0,
			"total_entries":   1,
			"total_gross":     1,
			"total_deduction": 1,
			"total_net":       1,
			"total_nights":    1,
			"unique_guests":   bson.M{"$size": "$guests"},
			"unique_listings": bson.M{"$size": "$listings"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rental history stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*model.RentalHistoryStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode rental history stats: %w", err)
	}

	if len(results) == 0 {
		return &model.RentalHistoryStats{}, nil
	}

	return results[0], nil
}

func (r *mongoRentalHistoryRepository) Revenue(ctx context.Context, filter model.RentalHistoryFilter) ([]*model.PropertyRevenue, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$property_id",
			"entries":   bson.M{"$sum": 1},
			"nights":    bson.M{"$sum": "$nights"},
			"gross":     bson.M{"$sum": "$gross"},
			"deduction": bson.M{"$sum": "$deduction"},
			"net":       bson.M{"$sum": "$net"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": listingsCollection,
			"let":  bson.M{"pid": bson.M{"$toObjectId": "$_id"}},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$pid"}}}},
				bson.M{"$project": bson.M{
					"_id":       bson.M{"$toString": "$_id"},
					"item_name": 1,
					"category":  1,
					"price":     1,
					"location":  1,
				}},
			},
			"as": "property",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$property", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$sort", Value: bson.D{{Key: "net", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*model.PropertyRevenue
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode revenue: %w", err)
	}

	return rows, nil
}
