package domain

import "time"

// Subjects listing lifecycle events are published on.
const (
	SubjectListingCreated = "listing.created"
	SubjectListingUpdated = "listing.updated"
	SubjectListingDeleted = "listing.deleted"
)

type ListingEvent struct {
	EventID     string      `json:"event_id"`
	ListingID   string      `json:"listing_id"`
	UserID      string      `json:"user_id"`
	ListingType ListingType `json:"listing_type"`
	Name        string      `json:"name,omitempty"`
	ImageCount  int         `json:"image_count"`
	VideoCount  int         `json:"video_count"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
