package usecase

import (
	"context"
	"errors"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
)

type FavoriteUsecase struct {
	repo     domain.FavoriteRepository
	listings domain.ListingRepository
	logger   *logger.Logger
}

func NewFavoriteUsecase(repo domain.FavoriteRepository, listings domain.ListingRepository, log *logger.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{
		repo:     repo,
		listings: listings,
		logger:   log,
	}
}

// AddFavorite saves a listing for the principal. The listing must exist.
func (uc *FavoriteUsecase) AddFavorite(ctx context.Context, principal domain.Principal, listingID string) error {
	uc.logger.Info("FavoriteUsecase.AddFavorite: adding favorite", "user_id", principal.UserID, "listing_id", listingID)
	if _, err := uc.listings.GetByID(ctx, listingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrListingNotFound
		}
		return err
	}
	err := uc.repo.Add(ctx, &domain.Favorite{UserID: principal.UserID, ListingID: listingID})
	if err != nil {
		uc.logger.Error("FavoriteUsecase.AddFavorite: failed to add favorite", "user_id", principal.UserID, "listing_id", listingID, "error", err.Error())
	}
	return err
}

func (uc *FavoriteUsecase) RemoveFavorite(ctx context.Context, principal domain.Principal, listingID string) error {
	uc.logger.Info("FavoriteUsecase.RemoveFavorite: removing favorite", "user_id", principal.UserID, "listing_id", listingID)
	err := uc.repo.Remove(ctx, principal.UserID, listingID)
	if err != nil {
		uc.logger.Error("FavoriteUsecase.RemoveFavorite: failed to remove favorite", "user_id", principal.UserID, "listing_id", listingID, "error", err.Error())
	}
	return err
}

// ListFavorites returns the saved listings, most recently saved first.
// Favorites whose listing has since disappeared are skipped.
func (uc *FavoriteUsecase) ListFavorites(ctx context.Context, principal domain.Principal) ([]*domain.Listing, error) {
	favorites, err := uc.repo.FindByUserID(ctx, principal.UserID)
	if err != nil {
		uc.logger.Error("FavoriteUsecase.ListFavorites: failed to fetch favorites", "user_id", principal.UserID, "error", err.Error())
		return nil, err
	}

	listings := make([]*domain.Listing, 0, len(favorites))
	for _, f := range favorites {
		l, err := uc.listings.GetByID(ctx, f.ListingID)
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Debug("FavoriteUsecase.ListFavorites: skipping missing listing", "listing_id", f.ListingID)
			continue
		}
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}
