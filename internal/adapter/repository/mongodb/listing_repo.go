package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listingCollectionName = "listings"

// ListingRepository implements domain.ListingRepository on MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: domain.KeyUserID, Value: 1}, {Key: domain.KeyCreatedAt, Value: -1}}},
		{Keys: bson.D{{Key: domain.KeyListingType, Value: 1}, {Key: domain.KeyCreatedAt, Value: -1}}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Indexes may already exist or be managed outside the service.
		log.Error("Failed to create indexes for listings collection", "error", err.Error())
	} else {
		log.Info("Successfully ensured indexes for listings collection")
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}
}

// objectID parses a listing id. Malformed ids cannot exist, so they are
// reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", domain.ErrListingNotFound, id)
	}
	return oid, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) (string, error) {
	doc, err := toListingDocument(listing)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert listing into DB", "error", err.Error(), "user_id", listing.UserID)
		return "", fmt.Errorf("%w: insert listing: %v", domain.ErrPersistence, err)
	}

	listing.ID = doc.ID.Hex()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	r.logger.Info("Listing created in DB", "listing_id", listing.ID, "listing_type", string(listing.ListingType))
	return listing.ID, nil
}

// Update merges fields into the stored document with $set.
func (r *ListingRepository) Update(ctx context.Context, id string, fields domain.Fields) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateByID(ctx, oid, updateDocument(fields, time.Now().UTC()))
	if err != nil {
		r.logger.Error("Failed to update listing in DB", "error", err.Error(), "listing_id", id)
		return fmt.Errorf("%w: update listing %s: %v", domain.ErrPersistence, id, err)
	}
	if res.MatchedCount == 0 {
		r.logger.Warn("Listing to update not found", "listing_id", id)
		return domain.ErrListingNotFound
	}
	r.logger.Debug("Listing updated in DB", "listing_id", id, "fields", len(fields))
	return nil
}

// Delete removes only the document; media objects are the caller's concern.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("Failed to delete listing from DB", "error", err.Error(), "listing_id", id)
		return fmt.Errorf("%w: delete listing %s: %v", domain.ErrPersistence, id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	r.logger.Info("Listing deleted from DB", "listing_id", id)
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("Failed to get listing by ID from DB", "error", err.Error(), "listing_id", id)
		return nil, fmt.Errorf("%w: find listing %s: %v", domain.ErrPersistence, id, err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find listings: %v", domain.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode listings: %v", domain.ErrPersistence, err)
	}
	return toDomainListings(docs), nil
}

// QueryByOwner returns the owner's listings, newest first.
func (r *ListingRepository) QueryByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: domain.KeyCreatedAt, Value: -1}})
	listings, err := r.find(ctx, bson.M{domain.KeyUserID: ownerID}, opts)
	if err != nil {
		r.logger.Error("Failed to query listings by owner", "error", err.Error(), "user_id", ownerID)
		return nil, err
	}
	return listings, nil
}

// QueryByType returns at most limit listings of a type ordered by creation
// time. A non-positive limit means no limit.
func (r *ListingRepository) QueryByType(ctx context.Context, listingType domain.ListingType, limit int, newestFirst bool) ([]*domain.Listing, error) {
	order := 1
	if newestFirst {
		order = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: domain.KeyCreatedAt, Value: order}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	listings, err := r.find(ctx, bson.M{domain.KeyListingType: string(listingType)}, opts)
	if err != nil {
		r.logger.Error("Failed to query listings by type", "error", err.Error(), "listing_type", string(listingType))
		return nil, err
	}
	r.logger.Debug("Queried listings by type", "listing_type", string(listingType), "count", len(listings))
	return listings, nil
}
