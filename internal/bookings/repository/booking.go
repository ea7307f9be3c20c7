package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "rentease/internal/bookings/errors"
	"rentease/pkg/config"
	mongotx "rentease/pkg/db/mongo"
	"rentease/pkg/model"
)

const (
	CollectionName = "Bookings"

	usersCollection    = "Users"
	listingsCollection = "Listings"
)

var allowedSortFields = map[string]bool{
	"created_at": true,
	"check_in":   true,
	"check_out":  true,
	"amount":     true,
	"status":     true,
}

var defaultSort = bson.D{{Key: "created_at", Value: -1}}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindDetailsByID(ctx context.Context, id string) (*model.BookingDetails, error)
	FindAll(ctx context.Context, filter model.BookingFilter, sortBy string, page int, limit int) ([]*model.BookingDetails, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	UpdateFields(ctx context.Context, id string, fields bson.M) error
	// SetStatusUnless sets fields only when the booking's status differs
	// from barrier. Reports whether the document was modified.
	SetStatusUnless(ctx context.Context, id string, barrier string, fields bson.M) (bool, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.BookingStats, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindDetailsByID(ctx context.Context, id string) (*model.BookingDetails, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": objectID}}},
	}
	pipeline = append(pipeline, joinStages()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking details: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*model.BookingDetails
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode booking details: %w", err)
	}

	if len(results) == 0 {
		return nil, bookingserrors.ErrNotFound
	}

	return results[0], nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, sortBy string, page int, limit int) ([]*model.BookingDetails, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildBookingFilter(filter)}},
		{{Key: "$sort", Value: mongotx.ParseSort(sortBy, allowedSortFields, defaultSort)}},
		{{Key: "$skip", Value: int64((page - 1) * limit)}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	pipeline = append(pipeline, joinStages()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.BookingDetails
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
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

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildBookingFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

func buildBookingFilter(filter model.BookingFilter) bson.M {
	query := bson.M{}

	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.GuestID != "" {
		query["guest_id"] = filter.GuestID
	}
	if filter.PropertyID != "" {
		query["property_id"] = filter.PropertyID
	}

	return query
}

func (r *mongoBookingRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) SetStatusUnless(ctx context.Context, id string, barrier string, fields bson.M) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)

	// The conditional filter makes the transition first-writer-wins:
	// concurrent attempts match at most once.
	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$ne": barrier},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) Stats(ctx context.Context) (*model.BookingStats, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":       "$status",
			"total":     bson.M{"$sum": 1},
			"amount":    bson.M{"$sum": "$amount"},
			"deduction": bson.M{"$sum": "$deduction"},
			"nights":    bson.M{"$sum": "$nights"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate booking stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status    string  `bson:"_id"`
		Total     int64   `bson:"total"`
		Amount    float64 `bson:"amount"`
		Deduction float64 `bson:"deduction"`
		Nights    int64   `bson:"nights"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode booking stats: %w", err)
	}

	stats := &model.BookingStats{ByStatus: make(map[string]int64)}
	for _, row := range rows {
		stats.TotalBookings += row.Total
		stats.ByStatus[row.Status] = row.Total

		// Revenue figures only count confirmed rentals.
		if row.Status == model.BookingApproved {
			stats.ApprovedAmount = row.Amount
			stats.ApprovedDeduction = row.Deduction
			stats.ApprovedNights = row.Nights
			stats.NetRevenue = row.Amount - row.Deduction
		}
	}

	return stats, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
