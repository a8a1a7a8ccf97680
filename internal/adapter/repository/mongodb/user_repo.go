package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository reads owner contact details from the users collection
// maintained by the user service.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
		logger:     log,
	}
}

// GetEmailByID looks a user up by ObjectID hex.
func (r *UserRepository) GetEmailByID(ctx context.Context, userID string) (string, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		r.logger.Error("GetEmailByID: invalid userID", "userID", userID, "error", err)
		return "", fmt.Errorf("%w: invalid user ID format: %v", domain.ErrValidation, err)
	}

	var userDoc struct {
		Email string `bson:"email"`
	}

	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&userDoc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Info("GetEmailByID: user not found", "userID", userID)
			return "", fmt.Errorf("user %w", domain.ErrNotFound)
		}
		r.logger.Error("GetEmailByID: failed to find user", "userID", userID, "error", err)
		return "", fmt.Errorf("%w: find user: %v", domain.ErrPersistence, err)
	}

	return userDoc.Email, nil
}
