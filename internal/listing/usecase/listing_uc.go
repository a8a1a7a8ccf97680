package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/collection"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/google/uuid"
)

const DefaultBrowseLimit = 500

// ListingUsecase serves the read paths and deletion of listings.
type ListingUsecase struct {
	repo        domain.ListingRepository
	favorites   domain.FavoriteRepository
	media       *MediaStore
	events      EventPublisher
	browseLimit int
	logger      *logger.Logger
}

func NewListingUsecase(repo domain.ListingRepository, favorites domain.FavoriteRepository, media *MediaStore, events EventPublisher, browseLimit int, log *logger.Logger) *ListingUsecase {
	if events == nil {
		events = nopPublisher{}
	}
	if browseLimit <= 0 {
		browseLimit = DefaultBrowseLimit
	}
	return &ListingUsecase{
		repo:        repo,
		favorites:   favorites,
		media:       media,
		events:      events,
		browseLimit: browseLimit,
		logger:      log,
	}
}

func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	uc.logger.Debug("ListingUsecase.GetListing: fetching listing", "listing_id", id)
	listing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("ListingUsecase.GetListing: listing not found", "listing_id", id)
			return nil, domain.ErrListingNotFound
		}
		uc.logger.Error("ListingUsecase.GetListing: failed to fetch listing", "listing_id", id, "error", err.Error())
		return nil, err
	}
	return listing, nil
}

// ListByOwner returns the owner's listings, newest first.
func (uc *ListingUsecase) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	listings, err := uc.repo.QueryByOwner(ctx, ownerID)
	if err != nil {
		uc.logger.Error("ListingUsecase.ListByOwner: failed to query listings", "user_id", ownerID, "error", err.Error())
		return nil, err
	}
	return listings, nil
}

// BrowseByType loads the newest listings of a type and runs the collection
// pipeline over them. With declared set, facets come from the schema's
// filterable fields instead of the listings themselves.
func (uc *ListingUsecase) BrowseByType(ctx context.Context, listingType domain.ListingType, q collection.Query, declared bool) (collection.Page, error) {
	if !listingType.IsValid() {
		return collection.Page{}, fmt.Errorf("%w: unknown listing type %q", domain.ErrValidation, listingType)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return collection.Page{}, fmt.Errorf("%w: min_price is greater than max_price", domain.ErrValidation)
	}

	listings, err := uc.repo.QueryByType(ctx, listingType, uc.browseLimit, true)
	if err != nil {
		uc.logger.Error("ListingUsecase.BrowseByType: failed to query listings", "listing_type", string(listingType), "error", err.Error())
		return collection.Page{}, err
	}

	var opts []collection.ViewOption
	if declared {
		opts = append(opts, collection.WithDeclaredFacets(domain.SchemaFor(listingType)))
	}
	view := collection.NewView(listings, opts...)
	view.SetSearch(q.Search)
	for key, value := range q.Filters {
		view.SetFilter(key, value)
	}
	view.SetPriceRange(q.MinPrice, q.MaxPrice)
	view.SetPageSize(q.PageSize)
	view.SetPage(q.Page)
	return view.Current(), nil
}

// DeleteListing removes a listing with all of its media and favorites. Only
// the owner may delete. Media objects go first; a failed media delete is
// logged and does not keep the document.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, id string, principal domain.Principal) error {
	uc.logger.Info("ListingUsecase.DeleteListing: deleting listing",
		"listing_id", id, "user_id_performing_action", principal.UserID)

	listing, err := uc.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if listing.UserID != principal.UserID {
		uc.logger.Warn("ListingUsecase.DeleteListing: forbidden to delete listing",
			"listing_id", id, "listing_owner_id", listing.UserID, "user_id_performing_action", principal.UserID)
		return domain.ErrForbidden
	}

	for _, url := range listing.MediaURLs() {
		if err := uc.media.Delete(ctx, url); err != nil {
			uc.logger.Warn("ListingUsecase.DeleteListing: failed to delete media", "listing_id", id, "url", url, "error", err.Error())
		}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.logger.Error("ListingUsecase.DeleteListing: failed to delete listing in repo", "listing_id", id, "error", err.Error())
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrListingNotFound
		}
		return err
	}

	if uc.favorites != nil {
		if n, err := uc.favorites.RemoveByListing(ctx, id); err != nil {
			uc.logger.Warn("ListingUsecase.DeleteListing: failed to remove favorites", "listing_id", id, "error", err.Error())
		} else if n > 0 {
			uc.logger.Debug("ListingUsecase.DeleteListing: removed favorites", "listing_id", id, "count", n)
		}
	}

	event := domain.ListingEvent{
		EventID:     uuid.NewString(),
		ListingID:   id,
		UserID:      listing.UserID,
		ListingType: listing.ListingType,
		Name:        listing.Name,
		OccurredAt:  time.Now().UTC(),
	}
	if err := uc.events.Publish(ctx, domain.SubjectListingDeleted, event); err != nil {
		uc.logger.Error("ListingUsecase.DeleteListing: failed to publish event", "listing_id", id, "error", err.Error())
	}
	return nil
}
