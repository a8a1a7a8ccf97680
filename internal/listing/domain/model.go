package domain

import (
	"strconv"
	"time"
)

type ListingType string

const (
	TypeApartments ListingType = "apartments"
	TypeGoods      ListingType = "goods"
	TypeServices   ListingType = "services"
	TypeRequests   ListingType = "requests"
)

// ListingTypes lists every supported type in display order.
var ListingTypes = []ListingType{TypeApartments, TypeGoods, TypeServices, TypeRequests}

func (t ListingType) IsValid() bool {
	switch t {
	case TypeApartments, TypeGoods, TypeServices, TypeRequests:
		return true
	}
	return false
}

// Persisted attribute names. Schema field keys share this namespace.
const (
	KeyID          = "id"
	KeyUserID      = "userId"
	KeyListingType = "listingType"
	KeyCategory    = "category"
	KeyName        = "name"
	KeyDescription = "description"
	KeyPrice       = "price"
	KeyCurrency    = "currency"
	KeyLocation    = "location"
	KeyCreatedAt   = "createdAt"
	KeyUpdatedAt   = "updatedAt"
	KeyImageURLs   = "imageUrls"
	KeyVideoURLs   = "videoUrls"
)

type Listing struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	ListingType ListingType `json:"listingType"`
	Category    string      `json:"category"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       *float64    `json:"price"` // nil when the listing has no price (requests may omit it)
	Currency    string      `json:"currency"`
	Location    string      `json:"location"`
	// Attributes holds the category-specific fields keyed by schema field key.
	Attributes map[string]string `json:"attributes"`
	ImageURLs  []string          `json:"imageUrls"`
	VideoURLs  []string          `json:"videoUrls"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Fields is a partial document keyed by persisted attribute name. A nil
// value removes the attribute.
type Fields map[string]interface{}

// ScalarAttributes flattens the listing into its scalar-valued attributes,
// keyed by persisted name. Media lists are not scalar and are left out.
func (l *Listing) ScalarAttributes() map[string]interface{} {
	out := map[string]interface{}{
		KeyID:          l.ID,
		KeyUserID:      l.UserID,
		KeyListingType: string(l.ListingType),
		KeyCategory:    l.Category,
		KeyName:        l.Name,
		KeyDescription: l.Description,
		KeyCurrency:    l.Currency,
		KeyLocation:    l.Location,
	}
	if l.Price != nil {
		out[KeyPrice] = *l.Price
	}
	for k, v := range l.Attributes {
		if _, taken := out[k]; taken {
			continue
		}
		out[k] = v
	}
	return out
}

// Attribute returns a scalar attribute rendered as a string.
func (l *Listing) Attribute(key string) (string, bool) {
	v, ok := l.ScalarAttributes()[key]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	}
	return "", false
}

// MediaURLs returns image URLs followed by video URLs.
func (l *Listing) MediaURLs() []string {
	urls := make([]string, 0, len(l.ImageURLs)+len(l.VideoURLs))
	urls = append(urls, l.ImageURLs...)
	return append(urls, l.VideoURLs...)
}

// MediaKind separates the two ordered media lists of a listing.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Principal is the authenticated caller, resolved once per request.
type Principal struct {
	UserID string
	Role   string
}
