package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
)

type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) GetByItemID(ctx context.Context, itemID int64) (*models.Reservation, error) {
	query := `
		SELECT id, item_id, reserver_display_name, reserver_contact, idempotency_token, created_at
		FROM reservations
		WHERE item_id = $1`

	var res models.Reservation
	err := r.db.QueryRowContext(ctx, query, itemID).
		Scan(&res.ID, &res.ItemID, &res.DisplayName, &res.Contact,
			&res.IdempotencyToken, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// Create inserts the reservation. The unique constraint on item_id is the
// only arbiter between concurrent reservers; losing the insert surfaces as
// ErrDuplicate, never as a partial write.
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	query := `
		INSERT INTO reservations (item_id, reserver_display_name, reserver_contact, idempotency_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reservation.ItemID, reservation.DisplayName, reservation.Contact,
		reservation.IdempotencyToken).
		Scan(&reservation.ID, &reservation.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create reservation: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return reservation, nil
}
