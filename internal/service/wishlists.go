package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/giftwell/server/internal/models"
)

// WishlistCreate is the owner's request to create a wishlist. Visibility
// defaults to public when left unset.
type WishlistCreate struct {
	Title         string       `json:"title"`
	Description   *string      `json:"description"`
	CoverImageURL *string      `json:"cover_image_url"`
	EventDate     *models.Date `json:"event_date"`
	IsPublic      *bool        `json:"is_public"`
}

// WishlistUpdate patches a wishlist; nil fields are left untouched.
type WishlistUpdate struct {
	Title         *string      `json:"title"`
	Description   *string      `json:"description"`
	CoverImageURL *string      `json:"cover_image_url"`
	EventDate     *models.Date `json:"event_date"`
	IsPublic      *bool        `json:"is_public"`
}

func (s *Service) CreateWishlist(ctx context.Context, ownerID int64, in WishlistCreate) (*models.Wishlist, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title must not be empty")
	}

	slug, err := s.newShareSlug(ctx)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}
	wishlist := &models.Wishlist{
		OwnerID:       ownerID,
		Title:         in.Title,
		Description:   in.Description,
		CoverImageURL: in.CoverImageURL,
		EventDate:     in.EventDate,
		IsPublic:      isPublic,
		ShareSlug:     slug,
	}
	created, err := s.wishlists.Create(ctx, wishlist)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}

	s.log.Info("wishlist created",
		zap.Int64("user_id", ownerID),
		zap.Int64("wishlist_id", created.ID),
		zap.String("share_slug", created.ShareSlug))

	if created.IsPublic {
		s.publishFriendIndexDirty(ownerID)
	}
	return created, nil
}

func (s *Service) GetWishlist(ctx context.Context, ownerID, wishlistID int64) (*models.Wishlist, error) {
	return s.ownedWishlist(ctx, ownerID, wishlistID)
}

func (s *Service) ListWishlists(ctx context.Context, ownerID int64) ([]*models.Wishlist, error) {
	wishlists, err := s.wishlists.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	return wishlists, nil
}

func (s *Service) UpdateWishlist(ctx context.Context, ownerID, wishlistID int64, in WishlistUpdate) (*models.Wishlist, error) {
	wishlist, err := s.ownedWishlist(ctx, ownerID, wishlistID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title must not be empty")
		}
		wishlist.Title = title
	}
	if in.Description != nil {
		wishlist.Description = in.Description
	}
	if in.CoverImageURL != nil {
		wishlist.CoverImageURL = in.CoverImageURL
	}
	if in.EventDate != nil {
		wishlist.EventDate = in.EventDate
	}
	if in.IsPublic != nil {
		wishlist.IsPublic = *in.IsPublic
	}

	updated, err := s.wishlists.Update(ctx, wishlist)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}

	// Friends refetch on any change while the wishlist is visible to them.
	// Going private broadcasts nothing; the next fetch drops it anyway.
	if updated.IsPublic {
		s.publishFriendIndexDirty(ownerID)
	}
	return updated, nil
}

func (s *Service) DeleteWishlist(ctx context.Context, ownerID, wishlistID int64) error {
	wishlist, err := s.ownedWishlist(ctx, ownerID, wishlistID)
	if err != nil {
		return err
	}

	wasPublic := wishlist.IsPublic
	if err := s.wishlists.Delete(ctx, wishlist.ID); err != nil {
		return unexpected(err, "Internal server error")
	}

	s.log.Info("wishlist deleted",
		zap.Int64("user_id", ownerID),
		zap.Int64("wishlist_id", wishlist.ID))

	if wasPublic {
		s.publishFriendIndexDirty(ownerID)
	}
	return nil
}

// ownedWishlist fetches a wishlist scoped to its owner. Someone else's
// wishlist id is a NotFound, not a Forbidden, so ids stay unguessable.
func (s *Service) ownedWishlist(ctx context.Context, ownerID, wishlistID int64) (*models.Wishlist, error) {
	wishlist, err := s.wishlists.GetForOwner(ctx, wishlistID, ownerID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if wishlist == nil {
		return nil, notFound("Wishlist not found")
	}
	return wishlist, nil
}
