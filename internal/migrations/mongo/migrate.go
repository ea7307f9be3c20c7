package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepo "rentease/internal/bookings/repository"
	listingsrepo "rentease/internal/listings/repository"
	rhrepo "rentease/internal/rentalhistory/repository"
	usersrepo "rentease/internal/users/repository"
	"rentease/pkg/config"
)

type collectionSpec struct {
	name      string
	validator bson.M
	indexes   []mongo.IndexModel
}

func specs() []collectionSpec {
	return []collectionSpec{
		{
			name:      usersrepo.CollectionName,
			validator: userSchema(),
			indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "email", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
				{
					Keys: bson.D{{Key: "user_type", Value: 1}, {Key: "is_id_verified", Value: 1}},
				},
			},
		},
		{
			name:      listingsrepo.CollectionName,
			validator: listingSchema(),
			indexes: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "item_name", Value: "text"}, {Key: "description", Value: "text"}},
				},
				{
					Keys: bson.D{{Key: "category", Value: 1}},
				},
				{
					Keys: bson.D{{Key: "uploaded_by", Value: 1}},
				},
			},
		},
		{
			name:      bookingsrepo.CollectionName,
			validator: bookingSchema(),
			indexes: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "status", Value: 1}},
				},
				{
					Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "check_in", Value: 1}},
				},
				{
					Keys: bson.D{{Key: "status", Value: 1}},
				},
			},
		},
		{
			name:      rhrepo.CollectionName,
			validator: rentalHistorySchema(),
			indexes: []mongo.IndexModel{
				{
					// One ledger entry per booking, enforced at the storage
					// layer as well as by the approval transaction.
					Keys:    bson.D{{Key: "booking_id", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
				{
					Keys: bson.D{{Key: "property_id", Value: 1}},
				},
				{
					Keys: bson.D{{Key: "guest_id", Value: 1}},
				},
			},
		},
	}
}

// Migrate creates the collections, applies their validators and ensures the
// indexes. It is idempotent so running it on every deploy is safe.
func Migrate(ctx context.Context, cfg *config.Config) error {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)

	for _, spec := range specs() {
		if err := ensureCollection(ctx, db, spec); err != nil {
			return fmt.Errorf("collection %s: %w", spec.name, err)
		}

		if len(spec.indexes) > 0 {
			if _, err := db.Collection(spec.name).Indexes().CreateMany(ctx, spec.indexes); err != nil {
				return fmt.Errorf("indexes on %s: %w", spec.name, err)
			}
		}

		cfg.Log.Info("Collection migrated", "collection", spec.name, "indexes", len(spec.indexes))
	}

	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, spec collectionSpec) error {
	err := db.CreateCollection(ctx, spec.name, options.CreateCollection().SetValidator(spec.validator))
	if err == nil {
		return nil
	}

	if !isNamespaceExists(err) {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Collection already exists: refresh its validator in place.
	cmd := bson.D{
		{Key: "collMod", Value: spec.name},
		{Key: "validator", Value: spec.validator},
		{Key: "validationLevel", Value: "moderate"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to update validator: %w", err)
	}

	return nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 48 is NamespaceExists.
		return cmdErr.Code == 48
	}
	return strings.Contains(err.Error(), "NamespaceExists")
}
