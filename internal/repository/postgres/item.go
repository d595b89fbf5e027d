package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giftwell/server/internal/models"
)

type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// viewColumns computes the projection alongside the row. The subqueries see
// the same snapshot as the outer select, so a view read after commit always
// reflects committed reservations and contributions.
const viewColumns = `
	i.id, i.wishlist_id, i.title, i.description, i.url, i.image_url,
	i.price, i.currency, i.is_deleted, i.created_at, i.updated_at,
	EXISTS (SELECT 1 FROM reservations r WHERE r.item_id = i.id) AS is_reserved,
	COALESCE((SELECT SUM(c.amount) FROM contributions c WHERE c.item_id = i.id), 0) AS collected_amount,
	(SELECT COUNT(*) FROM contributions c WHERE c.item_id = i.id) AS contributions_count`

func (r *ItemRepository) Create(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	query := `
		INSERT INTO wishlist_items (wishlist_id, title, description, url, image_url, price, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_deleted, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		item.WishlistID, item.Title, item.Description, item.URL,
		item.ImageURL, item.Price, item.Currency).
		Scan(&item.ID, &item.IsDeleted, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) GetForWishlist(ctx context.Context, itemID, wishlistID int64) (*models.WishlistItem, error) {
	query := `
		SELECT id, wishlist_id, title, description, url, image_url,
			price, currency, is_deleted, created_at, updated_at
		FROM wishlist_items
		WHERE id = $1 AND wishlist_id = $2`

	var item models.WishlistItem
	err := r.db.QueryRowContext(ctx, query, itemID, wishlistID).
		Scan(&item.ID, &item.WishlistID, &item.Title, &item.Description, &item.URL,
			&item.ImageURL, &item.Price, &item.Currency, &item.IsDeleted,
			&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func (r *ItemRepository) Update(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	query := `
		UPDATE wishlist_items
		SET title = $1, description = $2, url = $3, image_url = $4,
			price = $5, currency = $6, is_deleted = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		item.Title, item.Description, item.URL, item.ImageURL,
		item.Price, item.Currency, item.IsDeleted, item.ID).
		Scan(&item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) SoftDelete(ctx context.Context, itemID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE wishlist_items SET is_deleted = TRUE, updated_at = now() WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("soft delete item: %w", err)
	}
	return nil
}

func (r *ItemRepository) GetView(ctx context.Context, itemID int64) (*models.ItemView, error) {
	query := `SELECT ` + viewColumns + ` FROM wishlist_items i WHERE i.id = $1`

	view, err := scanItemView(r.db.QueryRowContext(ctx, query, itemID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item view: %w", err)
	}
	return view, nil
}

func (r *ItemRepository) ListViews(ctx context.Context, wishlistID int64) ([]*models.ItemView, error) {
	query := `SELECT ` + viewColumns + `
		FROM wishlist_items i
		WHERE i.wishlist_id = $1 AND i.is_deleted = FALSE
		ORDER BY i.created_at`

	rows, err := r.db.QueryContext(ctx, query, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("list item views: %w", err)
	}
	defer rows.Close()

	var views []*models.ItemView
	for rows.Next() {
		view, err := scanItemView(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan item view: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list item views: %w", err)
	}
	return views, nil
}

func scanItemView(scan func(dest ...any) error) (*models.ItemView, error) {
	var v models.ItemView
	err := scan(&v.ID, &v.WishlistID, &v.Title, &v.Description, &v.URL, &v.ImageURL,
		&v.Price, &v.Currency, &v.IsDeleted, &v.CreatedAt, &v.UpdatedAt,
		&v.IsReserved, &v.CollectedAmount, &v.ContributionsCount)
	if err != nil {
		return nil, err
	}
	v.TotalAmountTarget = v.Price
	return &v, nil
}
