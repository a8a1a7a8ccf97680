package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrFavoriteNotFound = fmt.Errorf("favorite %w", domain.ErrNotFound)

type FavoriteRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewFavoriteRepository(db *mongo.Database, log *logger.Logger) *FavoriteRepository {
	collection := db.Collection("favorites")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "listingId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Error("Failed to create indexes for favorites collection", "error", err.Error())
	}

	return &FavoriteRepository{
		collection: collection,
		logger:     log.Named("FavoriteRepository"),
	}
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	r.logger.Debug("FavoriteRepository.Add: attempting to add favorite", "user_id", favorite.UserID, "listing_id", favorite.ListingID)

	favorite.CreatedAt = time.Now().UTC()
	doc, err := toFavoriteDocument(favorite)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("FavoriteRepository.Add: favorite already exists", "user_id", favorite.UserID, "listing_id", favorite.ListingID)
			return domain.ErrAlreadyExists
		}
		r.logger.Error("FavoriteRepository.Add: InsertOne failed", "error", err.Error(), "user_id", favorite.UserID)
		return fmt.Errorf("%w: insert favorite: %v", domain.ErrPersistence, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		favorite.ID = oid.Hex()
	}
	r.logger.Info("Favorite added successfully", "id", favorite.ID, "user_id", favorite.UserID, "listing_id", favorite.ListingID)
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	if userID == "" || listingID == "" {
		return fmt.Errorf("%w: user id and listing id are required", domain.ErrValidation)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID, "listingId": listingID})
	if err != nil {
		r.logger.Error("FavoriteRepository.Remove: DeleteOne failed", "error", err.Error(), "user_id", userID, "listing_id", listingID)
		return fmt.Errorf("%w: delete favorite: %v", domain.ErrPersistence, err)
	}
	if result.DeletedCount == 0 {
		r.logger.Warn("FavoriteRepository.Remove: no favorite found to delete", "user_id", userID, "listing_id", listingID)
		return ErrFavoriteNotFound
	}
	r.logger.Info("Favorite removed successfully", "user_id", userID, "listing_id", listingID)
	return nil
}

func (r *FavoriteRepository) RemoveByListing(ctx context.Context, listingID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"listingId": listingID})
	if err != nil {
		r.logger.Error("FavoriteRepository.RemoveByListing: DeleteMany failed", "error", err.Error(), "listing_id", listingID)
		return 0, fmt.Errorf("%w: delete favorites: %v", domain.ErrPersistence, err)
	}
	return result.DeletedCount, nil
}

func (r *FavoriteRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		r.logger.Error("FavoriteRepository.FindByUserID: Find failed", "error", err.Error(), "user_id", userID)
		return nil, fmt.Errorf("%w: find favorites: %v", domain.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var docs []*favoriteDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("FavoriteRepository.FindByUserID: Cursor All failed", "error", err.Error(), "user_id", userID)
		return nil, fmt.Errorf("%w: decode favorites: %v", domain.ErrPersistence, err)
	}

	r.logger.Debug("FavoriteRepository.FindByUserID: found favorites", "user_id", userID, "count", len(docs))
	return toDomainFavorites(docs), nil
}
