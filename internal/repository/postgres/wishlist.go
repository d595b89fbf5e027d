package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
)

type WishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

const wishlistColumns = `id, owner_id, title, description, cover_image_url,
	event_date, is_public, share_slug, created_at, updated_at`

func (r *WishlistRepository) Create(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	query := `
		INSERT INTO wishlists (owner_id, title, description, cover_image_url, event_date, is_public, share_slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		wishlist.OwnerID, wishlist.Title, wishlist.Description, wishlist.CoverImageURL,
		wishlist.EventDate, wishlist.IsPublic, wishlist.ShareSlug).
		Scan(&wishlist.ID, &wishlist.CreatedAt, &wishlist.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create wishlist: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("create wishlist: %w", err)
	}
	return wishlist, nil
}

func (r *WishlistRepository) GetForOwner(ctx context.Context, id, ownerID int64) (*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE id = $1 AND owner_id = $2`
	return r.scanWishlist(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *WishlistRepository) GetPublicBySlug(ctx context.Context, shareSlug string) (*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE share_slug = $1 AND is_public = TRUE`
	return r.scanWishlist(r.db.QueryRowContext(ctx, query, shareSlug))
}

func (r *WishlistRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.listWishlists(ctx, query, ownerID)
}

func (r *WishlistRepository) ListPublicByOwner(ctx context.Context, ownerID int64) ([]*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + `
		FROM wishlists
		WHERE owner_id = $1 AND is_public = TRUE
		ORDER BY created_at DESC`
	return r.listWishlists(ctx, query, ownerID)
}

func (r *WishlistRepository) Update(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	query := `
		UPDATE wishlists
		SET title = $1, description = $2, cover_image_url = $3, event_date = $4,
			is_public = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		wishlist.Title, wishlist.Description, wishlist.CoverImageURL,
		wishlist.EventDate, wishlist.IsPublic, wishlist.ID).
		Scan(&wishlist.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update wishlist: %w", err)
	}
	return wishlist, nil
}

func (r *WishlistRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wishlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete wishlist: %w", err)
	}
	return nil
}

func (r *WishlistRepository) SlugExists(ctx context.Context, shareSlug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM wishlists WHERE share_slug = $1)`, shareSlug).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *WishlistRepository) scanWishlist(row *sql.Row) (*models.Wishlist, error) {
	var w models.Wishlist
	err := row.Scan(&w.ID, &w.OwnerID, &w.Title, &w.Description, &w.CoverImageURL,
		&w.EventDate, &w.IsPublic, &w.ShareSlug, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wishlist: %w", err)
	}
	return &w, nil
}

func (r *WishlistRepository) listWishlists(ctx context.Context, query string, args ...any) ([]*models.Wishlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wishlists: %w", err)
	}
	defer rows.Close()

	var wishlists []*models.Wishlist
	for rows.Next() {
		var w models.Wishlist
		err := rows.Scan(&w.ID, &w.OwnerID, &w.Title, &w.Description, &w.CoverImageURL,
			&w.EventDate, &w.IsPublic, &w.ShareSlug, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist: %w", err)
		}
		wishlists = append(wishlists, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wishlists: %w", err)
	}
	return wishlists, nil
}
