package usecase

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites(t *testing.T) {
	repo := newMemRepo()
	repo.seed(&domain.Listing{ID: "l1", UserID: "seller", ListingType: domain.TypeGoods, Name: "Lamp"})
	repo.seed(&domain.Listing{ID: "l2", UserID: "seller", ListingType: domain.TypeGoods, Name: "Desk"})
	favs := &memFavorites{}
	uc := NewFavoriteUsecase(favs, repo, logger.NewNop())
	ctx := context.Background()
	buyer := domain.Principal{UserID: "buyer"}

	require.NoError(t, uc.AddFavorite(ctx, buyer, "l1"))
	require.NoError(t, uc.AddFavorite(ctx, buyer, "l2"))
	assert.ErrorIs(t, uc.AddFavorite(ctx, buyer, "l1"), domain.ErrAlreadyExists)
	assert.ErrorIs(t, uc.AddFavorite(ctx, buyer, "missing"), domain.ErrListingNotFound)

	listings, err := uc.ListFavorites(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "l2", listings[0].ID, "most recently saved first")

	require.NoError(t, repo.Delete(ctx, "l2"))
	listings, err = uc.ListFavorites(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, listings, 1, "favorites of deleted listings are skipped")

	require.NoError(t, uc.RemoveFavorite(ctx, buyer, "l1"))
	assert.ErrorIs(t, uc.RemoveFavorite(ctx, buyer, "l1"), domain.ErrNotFound)
}
