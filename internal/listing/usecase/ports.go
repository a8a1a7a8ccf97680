package usecase

import (
	"context"
	"io"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// BlobStore is the object storage behind listing media.
type BlobStore interface {
	// Put stores r under key, overwriting any existing object, and returns
	// its retrieval URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object. A missing object is reported as domain.ErrNotFound.
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a retrieval URL produced by Put back to its key.
	KeyFromURL(url string) (string, bool)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, event domain.ListingEvent) error
}

// Mailer sends plain notification emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type MediaObserver interface {
	MediaUploaded(kind string)
	MediaDeleteFailed()
}

type CommitObserver interface {
	CommitFinished(listingType, step string, err error)
}

type nopObserver struct{}

func (nopObserver) MediaUploaded(string)                 {}
func (nopObserver) MediaDeleteFailed()                   {}
func (nopObserver) CommitFinished(string, string, error) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, domain.ListingEvent) error { return nil }
