package service

import (
	"context"

	"github.com/giftwell/server/internal/models"
)

// PublicWishlist resolves a share slug for anonymous viewers. Private
// wishlists are indistinguishable from missing ones.
func (s *Service) PublicWishlist(ctx context.Context, shareSlug string) (*models.Wishlist, error) {
	wishlist, err := s.wishlists.GetPublicBySlug(ctx, shareSlug)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if wishlist == nil {
		return nil, notFound("Wishlist not found")
	}
	return wishlist, nil
}

// PublicItems lists the projections of a shared wishlist's live items.
func (s *Service) PublicItems(ctx context.Context, shareSlug string) ([]*models.ItemView, error) {
	wishlist, err := s.PublicWishlist(ctx, shareSlug)
	if err != nil {
		return nil, err
	}
	views, err := s.items.ListViews(ctx, wishlist.ID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	return views, nil
}

// PublicItem returns one live item's projection from a shared wishlist.
func (s *Service) PublicItem(ctx context.Context, shareSlug string, itemID int64) (*models.ItemView, error) {
	item, err := s.publicItem(ctx, shareSlug, itemID)
	if err != nil {
		return nil, err
	}
	view, err := s.items.GetView(ctx, item.ID)
	if err != nil || view == nil {
		return nil, unexpected(err, "Internal server error")
	}
	return view, nil
}

// publicItem fetches an item eligible for guest actions: it must belong to
// the publicly shared wishlist and must not be soft deleted. Deleted items
// report NotFound even though their rows survive.
func (s *Service) publicItem(ctx context.Context, shareSlug string, itemID int64) (*models.WishlistItem, error) {
	wishlist, err := s.PublicWishlist(ctx, shareSlug)
	if err != nil {
		return nil, err
	}
	item, err := s.items.GetForWishlist(ctx, itemID, wishlist.ID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if item == nil || item.IsDeleted {
		return nil, notFound("Item not found")
	}
	return item, nil
}

// UserExists reports whether a user id resolves, for friend-feed viewers.
func (s *Service) UserExists(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, unexpected(err, "Internal server error")
	}
	return user != nil, nil
}
