package domain

import (
	"context"
	"time"
)

// ListingRepository is the document-store port for listings. It does not
// validate field shape and never touches media objects.
type ListingRepository interface {
	// Create stores a new listing, assigning its ID and creation timestamp.
	Create(ctx context.Context, listing *Listing) (string, error)
	// Update merges fields into an existing listing.
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	QueryByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
	QueryByType(ctx context.Context, listingType ListingType, limit int, newestFirst bool) ([]*Listing, error)
}

// UserDirectory resolves contact details of listing owners.
type UserDirectory interface {
	GetEmailByID(ctx context.Context, userID string) (string, error)
}

// Favorite is a listing saved by a user.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ListingID string    `json:"listingId"`
	CreatedAt time.Time `json:"createdAt"`
}

type FavoriteRepository interface {
	// Add fails with ErrAlreadyExists when the user already saved the listing.
	Add(ctx context.Context, favorite *Favorite) error
	Remove(ctx context.Context, userID, listingID string) error
	// RemoveByListing drops every user's favorite of a listing.
	RemoveByListing(ctx context.Context, listingID string) (int64, error)
	FindByUserID(ctx context.Context, userID string) ([]*Favorite, error)
}
