package mongodb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listingDocument stores a listing with its category attributes flattened
// into the top level of the document.
type listingDocument struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty"`
	UserID      string                 `bson:"userId"`
	ListingType string                 `bson:"listingType"`
	Category    string                 `bson:"category"`
	Name        string                 `bson:"name"`
	Description string                 `bson:"description"`
	Price       *float64               `bson:"price"`
	Currency    string                 `bson:"currency"`
	Location    string                 `bson:"location"`
	ImageURLs   []string               `bson:"imageUrls"`
	VideoURLs   []string               `bson:"videoUrls"`
	CreatedAt   time.Time              `bson:"createdAt"`
	UpdatedAt   time.Time              `bson:"updatedAt"`
	Attributes  map[string]interface{} `bson:",inline"`
}

type favoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	ListingID string             `bson:"listingId"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// reservedKeys may not be written through a partial update.
var reservedKeys = map[string]bool{
	"_id":               true,
	domain.KeyID:        true,
	domain.KeyUserID:    true,
	domain.KeyCreatedAt: true,
	domain.KeyUpdatedAt: true,
}

// documentKeys are the top-level names taken by listingDocument fields.
var documentKeys = map[string]bool{
	"_id": true, domain.KeyUserID: true, domain.KeyListingType: true, domain.KeyCategory: true,
	domain.KeyName: true, domain.KeyDescription: true, domain.KeyPrice: true, domain.KeyCurrency: true,
	domain.KeyLocation: true, domain.KeyImageURLs: true, domain.KeyVideoURLs: true,
	domain.KeyCreatedAt: true, domain.KeyUpdatedAt: true,
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}

// toListingDocument leaves the ID unset when the listing has none so the
// repository can assign one.
func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	var docID primitive.ObjectID
	if l.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("toListingDocument: invalid ID format '%s': %w", l.ID, err)
		}
	}

	attrs := make(map[string]interface{}, len(l.Attributes))
	for k, v := range l.Attributes {
		if documentKeys[k] || k == domain.KeyID {
			continue
		}
		attrs[k] = v
	}
	return &listingDocument{
		ID:          docID,
		UserID:      l.UserID,
		ListingType: string(l.ListingType),
		Category:    l.Category,
		Name:        l.Name,
		Description: l.Description,
		Price:       l.Price,
		Currency:    l.Currency,
		Location:    l.Location,
		ImageURLs:   nonNil(l.ImageURLs),
		VideoURLs:   nonNil(l.VideoURLs),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
		Attributes:  attrs,
	}, nil
}

func attributeString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	}
	return "", false
}

func toDomainListing(d *listingDocument) *domain.Listing {
	attrs := make(map[string]string, len(d.Attributes))
	for k, v := range d.Attributes {
		if s, ok := attributeString(v); ok {
			attrs[k] = s
		}
	}
	return &domain.Listing{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		ListingType: domain.ListingType(d.ListingType),
		Category:    d.Category,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Currency:    d.Currency,
		Location:    d.Location,
		Attributes:  attrs,
		ImageURLs:   nonNil(d.ImageURLs),
		VideoURLs:   nonNil(d.VideoURLs),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainListing(doc))
	}
	return out
}

// updateDocument turns partial fields into $set and $unset operators, dropping
// keys that identify or timestamp the listing. Nil values are unset.
func updateDocument(fields domain.Fields, now time.Time) bson.M {
	set := bson.M{}
	unset := bson.M{}
	for k, v := range fields {
		if reservedKeys[k] {
			continue
		}
		if v == nil {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	set[domain.KeyUpdatedAt] = now
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func toFavoriteDocument(f *domain.Favorite) (*favoriteDocument, error) {
	var docID primitive.ObjectID
	if f.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(f.ID)
		if err != nil {
			return nil, fmt.Errorf("toFavoriteDocument: invalid ID format '%s': %w", f.ID, err)
		}
	}
	return &favoriteDocument{
		ID:        docID,
		UserID:    f.UserID,
		ListingID: f.ListingID,
		CreatedAt: f.CreatedAt,
	}, nil
}

func toDomainFavorite(d *favoriteDocument) *domain.Favorite {
	return &domain.Favorite{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ListingID: d.ListingID,
		CreatedAt: d.CreatedAt,
	}
}

func toDomainFavorites(docs []*favoriteDocument) []*domain.Favorite {
	out := make([]*domain.Favorite, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainFavorite(doc))
	}
	return out
}
