package models

import "time"

type Wishlist struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"-"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	CoverImageURL *string   `json:"cover_image_url"`
	EventDate     *Date     `json:"event_date"`
	IsPublic      bool      `json:"is_public"`
	ShareSlug     string    `json:"share_slug"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type WishlistItem struct {
	ID          int64     `json:"id"`
	WishlistID  int64     `json:"wishlist_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	URL         *string   `json:"url"`
	ImageURL    *string   `json:"image_url"`
	Price       *float64  `json:"price"`
	Currency    *string   `json:"currency"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemView is a WishlistItem together with its reservation and contribution
// projections. It is the shape clients see in item responses and in
// ITEM_UPDATED events, so it must always be computed from committed rows.
type ItemView struct {
	WishlistItem
	IsReserved         bool     `json:"is_reserved"`
	CollectedAmount    float64  `json:"collected_amount"`
	ContributionsCount int      `json:"contributions_count"`
	TotalAmountTarget  *float64 `json:"total_amount_target"`
}
