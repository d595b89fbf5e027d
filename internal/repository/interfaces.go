// Package repository defines the persistence contracts the service layer
// depends on. Implementations live under repository/postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/giftwell/server/internal/models"
)

// ErrDuplicate is returned when an insert loses to a unique constraint.
// Callers decide whether that means a conflict or a replay.
var ErrDuplicate = errors.New("duplicate row")

// Lookup methods return (nil, nil) when no row matches; errors are reserved
// for real failures.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	MarkEmailVerified(ctx context.Context, id int64) error
}

type EmailCodeRepository interface {
	Create(ctx context.Context, code *models.EmailCode) (*models.EmailCode, error)
	// GetLatestActive returns the newest unused, unexpired code for the
	// email and purpose.
	GetLatestActive(ctx context.Context, email, purpose string, now time.Time) (*models.EmailCode, error)
	MarkUsed(ctx context.Context, id int64) error
}

type WishlistRepository interface {
	Create(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error)
	GetForOwner(ctx context.Context, id, ownerID int64) (*models.Wishlist, error)
	// GetPublicBySlug resolves a share slug, ignoring private wishlists.
	GetPublicBySlug(ctx context.Context, shareSlug string) (*models.Wishlist, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Wishlist, error)
	ListPublicByOwner(ctx context.Context, ownerID int64) ([]*models.Wishlist, error)
	Update(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error)
	Delete(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, shareSlug string) (bool, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error)
	// GetForWishlist returns the item row even when soft deleted; callers
	// check IsDeleted.
	GetForWishlist(ctx context.Context, itemID, wishlistID int64) (*models.WishlistItem, error)
	Update(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error)
	SoftDelete(ctx context.Context, itemID int64) error
	// GetView loads the item projection: reservation flag, collected amount
	// and contribution count computed from committed rows.
	GetView(ctx context.Context, itemID int64) (*models.ItemView, error)
	// ListViews returns projections for the wishlist's non-deleted items.
	ListViews(ctx context.Context, wishlistID int64) ([]*models.ItemView, error)
}

type ReservationRepository interface {
	GetByItemID(ctx context.Context, itemID int64) (*models.Reservation, error)
	// Create inserts the reservation, returning ErrDuplicate when the item
	// is already reserved.
	Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error)
}

type ContributionRepository interface {
	// Exists reports whether the guest identity already contributed to the
	// item. NULL and empty contact fold to the same identity.
	Exists(ctx context.Context, itemID int64, displayName string, contact *string) (bool, error)
	// Create inserts the contribution, returning ErrDuplicate when the same
	// identity already contributed.
	Create(ctx context.Context, contribution *models.Contribution) (*models.Contribution, error)
}

type FriendRepository interface {
	// CreatePair records the friendship in both directions atomically.
	CreatePair(ctx context.Context, userID, friendID int64) (*models.Friend, error)
	GetPair(ctx context.Context, userID, friendID int64) (*models.Friend, error)
	// DeletePair removes both directions of the friendship.
	DeletePair(ctx context.Context, userID, friendID int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.FriendView, error)
}
