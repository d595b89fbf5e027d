package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/giftwell/server/internal/models"
)

// ItemCreate is the owner's request to add an item.
type ItemCreate struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	URL         *string  `json:"url"`
	ImageURL    *string  `json:"image_url"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
}

// ItemUpdate patches an item; nil fields are left untouched. Setting
// IsDeleted to true is equivalent to deleting the item.
type ItemUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	URL         *string  `json:"url"`
	ImageURL    *string  `json:"image_url"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	IsDeleted   *bool    `json:"is_deleted"`
}

func (s *Service) CreateItem(ctx context.Context, ownerID, wishlistID int64, in ItemCreate) (*models.ItemView, error) {
	wishlist, err := s.ownedWishlist(ctx, ownerID, wishlistID)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title must not be empty")
	}

	item := &models.WishlistItem{
		WishlistID:  wishlist.ID,
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Currency:    in.Currency,
	}
	created, err := s.items.Create(ctx, item)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}

	s.log.Info("item created",
		zap.Int64("user_id", ownerID),
		zap.Int64("wishlist_id", wishlist.ID),
		zap.Int64("item_id", created.ID))

	return s.finishItemMutation(ctx, wishlist, created.ID)
}

func (s *Service) ListItems(ctx context.Context, ownerID, wishlistID int64) ([]*models.ItemView, error) {
	wishlist, err := s.ownedWishlist(ctx, ownerID, wishlistID)
	if err != nil {
		return nil, err
	}
	views, err := s.items.ListViews(ctx, wishlist.ID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	return views, nil
}

func (s *Service) UpdateItem(ctx context.Context, ownerID, wishlistID, itemID int64, in ItemUpdate) (*models.ItemView, error) {
	wishlist, item, err := s.ownedItem(ctx, ownerID, wishlistID, itemID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title must not be empty")
		}
		item.Title = title
	}
	if in.Description != nil {
		item.Description = in.Description
	}
	if in.URL != nil {
		item.URL = in.URL
	}
	if in.ImageURL != nil {
		item.ImageURL = in.ImageURL
	}
	if in.Price != nil {
		item.Price = in.Price
	}
	if in.Currency != nil {
		item.Currency = in.Currency
	}
	if in.IsDeleted != nil {
		item.IsDeleted = *in.IsDeleted
	}

	if _, err := s.items.Update(ctx, item); err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	return s.finishItemMutation(ctx, wishlist, item.ID)
}

// DeleteItem soft deletes: the row survives so existing reservations and
// contributions keep their history, but the item disappears from listings
// and stops accepting guest actions.
func (s *Service) DeleteItem(ctx context.Context, ownerID, wishlistID, itemID int64) error {
	wishlist, item, err := s.ownedItem(ctx, ownerID, wishlistID, itemID)
	if err != nil {
		return err
	}

	if err := s.items.SoftDelete(ctx, item.ID); err != nil {
		return unexpected(err, "Internal server error")
	}

	s.log.Info("item deleted",
		zap.Int64("user_id", ownerID),
		zap.Int64("wishlist_id", wishlist.ID),
		zap.Int64("item_id", item.ID))

	// Viewers get the final projection with the deleted flag set.
	if _, err := s.finishItemMutation(ctx, wishlist, item.ID); err != nil {
		return err
	}
	return nil
}

// ownedItem resolves an owner's item, rejecting soft-deleted ones.
func (s *Service) ownedItem(ctx context.Context, ownerID, wishlistID, itemID int64) (*models.Wishlist, *models.WishlistItem, error) {
	wishlist, err := s.ownedWishlist(ctx, ownerID, wishlistID)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.items.GetForWishlist(ctx, itemID, wishlist.ID)
	if err != nil {
		return nil, nil, unexpected(err, "Internal server error")
	}
	if item == nil || item.IsDeleted {
		return nil, nil, notFound("Item not found")
	}
	return wishlist, item, nil
}

// finishItemMutation reloads the committed projection for the response and,
// when the wishlist is shared, broadcasts it to viewers.
func (s *Service) finishItemMutation(ctx context.Context, wishlist *models.Wishlist, itemID int64) (*models.ItemView, error) {
	view, err := s.items.GetView(ctx, itemID)
	if err != nil || view == nil {
		return nil, unexpected(err, "Internal server error")
	}
	if wishlist.IsPublic {
		s.broadcastView(wishlist.ShareSlug, view)
	}
	return view, nil
}
