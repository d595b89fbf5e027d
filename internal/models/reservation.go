package models

import "time"

// Reservation marks an item as taken by a single guest. The reservations
// table carries a unique constraint on item_id, so at most one row can ever
// exist per item. Contact details and the idempotency token never leave the
// server.
type Reservation struct {
	ID               int64     `json:"id"`
	ItemID           int64     `json:"item_id"`
	DisplayName      string    `json:"display_name"`
	Contact          *string   `json:"-"`
	IdempotencyToken *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Contribution is a single guest's pledge toward an item. A guest identity
// (display name plus optional contact) can contribute at most once per item.
type Contribution struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	DisplayName string    `json:"display_name"`
	Contact     *string   `json:"-"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}
